// Package logger provides structured logging for eventhub using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("hub")
//	log.Info("subscriber registered", logger.Fields("subscriber_id", id))
package logger
