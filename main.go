package main

import "github.com/jamshid-zayniyev/warehouse-admin/cmd"

func main() {
	cmd.Execute()
}
