// Package typegen writes TypeScript declarations for a config schema.
//
// The schema is compiled by an external tool (json2ts by default); the
// generator appends a root interface that extends the schema's own type
// with the runtimeEnv field every loaded config carries.
package typegen
