package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           pland API
// @version         1.0
// @description     HTTP API for planning model loads across accelerator devices.
//
// @contact.name   pland maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
