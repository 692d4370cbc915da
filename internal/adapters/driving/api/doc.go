// Package api serves ingestion and question answering over HTTP with fiber.
//
// It is a driving adapter: handlers decode and validate requests, call the
// driving ports and map domain errors to status codes in ErrorHandler.
//
// Routes:
//
//	GET  /check/healthy
//	POST /api/v1/ingest
//	POST /api/v1/ask
//	GET  /api/v1/index
package api
