// Package config manages the ibuslink configuration file.
//
// The file is YAML, stored in the platform configuration directory
// (~/.config/ibuslink/config.yaml on Linux), and covers the serial link,
// the dashboard server and the virtual sensors to register at startup:
//
//	version: 1
//	link:
//	  port: /dev/ttyUSB0
//	  baud: 115200
//	  telemetry: true
//	server:
//	  listen: ":8642"
//	  announce: true
//	sensors:
//	  - name: temperature
//	    type: 0x01
//	  - name: rpm
//	    type: 0x02
//
// A missing file yields working defaults; saving is atomic (write to a
// temporary file, then rename).
package config
