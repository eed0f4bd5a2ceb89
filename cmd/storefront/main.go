// @title           Storefront API
// @version         1.0
// @description     Inventory catalogue, stock purchases and restocks with role-based access.
// @BasePath        /api
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
//
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        auth-token
package main

import "github.com/stockroom/storefront/internal/cli"

func main() {
	cli.Execute()
}
