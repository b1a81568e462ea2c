// Package config provides configuration types and loading for avroute.
//
// Configuration is a single YAML file. ${VAR} and ${VAR:-default}
// references are substituted from the environment before parsing, and
// fields left out of the file keep their defaults:
//
//	server:
//	  port: 8080
//	  shutdownTimeout: 10s
//	static:
//	  mounts:
//	    - prefix: /static
//	      dir: ${STATIC_DIR:-./public}
//	logging:
//	  level: info
//
// A Watcher reloads the file on change. Routes and static mounts are
// write-once, so only the logging level is applied live.
package config
