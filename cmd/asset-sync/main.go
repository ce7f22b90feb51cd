package main

// @title           Asset Sync API
// @version         1.0
// @description     Synchronizes asset inventory from external CMDBs, asset management systems, REST APIs and webhooks.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/asset-sync/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

// @securityDefinitions.apikey WebhookSecret
// @in header
// @name X-Webhook-Secret
// @description Shared secret configured on a WEBHOOK integration

import (
	"os"

	_ "github.com/custodia-labs/asset-sync/docs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
