package main

import (
	"flag"
	"log"
	"os"

	"github.com/hypercheck/hypercheck-backend/cmd"
)

func main() {
	shouldRunMigrations := flag.Bool("migrations", false, "Run database migrations")
	shouldRunServer := flag.Bool("server", false, "Run the API server")
	shouldRunWorker := flag.Bool("worker", false, "Run the test run worker")
	shouldRunScheduler := flag.Bool("scheduler", false, "Run the cron scheduler")
	flag.Parse()

	if !*shouldRunMigrations && !*shouldRunServer && !*shouldRunWorker && !*shouldRunScheduler {
		log.Print("no command selected, use -migrations, -server, -worker or -scheduler")
		os.Exit(1)
	}

	if *shouldRunMigrations {
		if err := cmd.RunMigrations(); err != nil {
			os.Exit(1)
		}
	}
	if *shouldRunServer {
		if err := cmd.RunServer(); err != nil {
			os.Exit(1)
		}
	}
	if *shouldRunWorker {
		if err := cmd.RunWorker(); err != nil {
			os.Exit(1)
		}
	}
	if *shouldRunScheduler {
		if err := cmd.RunJobScheduler(); err != nil {
			os.Exit(1)
		}
	}
}
