/*
Package config resolves application configuration for one runtime
environment.

🎯 Purpose:
- Picks the environment from an environment variable (NODE_ENV by default)
- Loads {root}/{env}.{json,yaml,yml} on top of an optional base config
- Decrypts sops-encrypted values and expands ${VAR} placeholders
- Validates against {root}/schema.json when one exists

🔄 Flow:

	New ──► options check ──► env var ──► schema lookup ──► Load
	                                                         │
	  base.yml ─┐                                            ▼
	            ├─► merge ──► sops ──► ${VAR} ──► runtimeEnv ──► schema
	  {env}.yml ┘                                                  │
	                                                               ▼
	                                            type generation (dev only,
	                                            in the background)

⚡ Guarantees:
- A Loader reads and decrypts its environment file at most once
- Base configs never carry Secret-suffixed keys
- Every loaded config has runtimeEnv set to the active environment
- Type generation failures are logged, never returned from Load
*/
package config
