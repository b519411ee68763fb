package main

import (
	"flag"

	"pin-archive-bot/bot"
	"pin-archive-bot/handlers"
)

func main() {
	configFile := flag.String("c", "config_pin_archive.ini", "Config file path")
	flag.Parse()

	bot.Run(*configFile, handlers.Register)
}
