// Package text expands ${VAR} placeholders in configuration documents and
// hydrates them with the active runtime environment.
//
//	{"url":"http://${HOST}:${PORT}"}
//	         │
//	         ▼  grammar checks over the whole text
//	         ▼  lookup HOST, PORT
//	{"url":"http://db:5432"} + runtimeEnv
package text
