// @title        Supplier Console API
// @version      1.0
// @description  Session, account and notification endpoints of the supplier dashboard.
// @BasePath     /
package main

import "github.com/supplyhub/supplier-console/cmd/supplier-console/cmd"

func main() {
	cmd.Execute()
}
