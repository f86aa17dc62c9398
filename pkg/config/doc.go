// Package config loads typed configuration structs from environment
// variables.
//
// It combines godotenv (optional .env files) with caarlos0/env (struct tag
// parsing) and caches each parsed type for the process lifetime, so the
// queue worker, the webhook dispatcher, and the inbox server all observe the
// same configuration without re-reading the environment.
//
//	var redisCfg redis.Config
//	var pgCfg pg.Config
//	config.MustLoad(&redisCfg)
//	config.MustLoad(&pgCfg)
//
// Use LoadEnv to pull in .env files from non-default locations before the
// first Load call. Values already present in the environment always win over
// file contents.
package config
