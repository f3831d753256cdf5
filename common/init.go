package common

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/timera-ai/timera-api/common/logger"
)

var (
	Port         = flag.Int("port", 8000, "the listening port")
	PrintVersion = flag.Bool("version", false, "print version and exit")
	PrintHelp    = flag.Bool("help", false, "print help and exit")
	LogDir       = flag.String("log-dir", "", "specify the log directory")
)

func printHelp() {
	fmt.Println("Timera API " + Version + " - credit-metered AI content generation service.")
	fmt.Println("Usage: timera-api [--port <port>] [--log-dir <log directory>] [--version] [--help]")
}

func Init() {
	flag.Parse()

	if *PrintVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if *PrintHelp {
		printHelp()
		os.Exit(0)
	}

	if os.Getenv("SQLITE_PATH") != "" {
		SQLitePath = os.Getenv("SQLITE_PATH")
	}

	logDir := *LogDir
	if logDir == "" {
		logDir = os.Getenv("LOG_DIR")
	}
	if logDir != "" {
		var err error
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			err = os.Mkdir(logDir, 0777)
			if err != nil {
				log.Fatal(err)
			}
		}
		logger.LogDir = logDir
	}
}
