package main

import "github.com/loxigl/Rent-Pro/internal/app"

func main() {
	app.Run()
}
