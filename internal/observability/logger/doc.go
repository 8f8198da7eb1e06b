// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request lleva su logger con request_id, tenant_id, etc.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "brandkit"})
//	defer logger.L().Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx)
//	log.Info("account linked", logger.AccountID(id))
//
// Nunca loguear tokens, codes de OAuth ni ciphertexts. Para URLs de la Graph API
// usar logger.GraphURL, que redacta access_token.
package logger
