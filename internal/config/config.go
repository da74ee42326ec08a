package config

import "os"

type Config struct {
	Port           string
	DBDriver       string
	DBDSN          string
	AutoMigrate    bool
	GazettePDFPath string
	AuthEnabled    bool
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	driver := os.Getenv("ECGBILL_DB_DRIVER")
	if driver == "" {
		driver = "memory"
	}
	dsn := os.Getenv("ECGBILL_DB_DSN")
	if dsn == "" && driver == "sqlite" {
		dsn = "ecgbill.db"
	}
	gazette := os.Getenv("ECGBILL_GAZETTE_PDF_PATH")
	if gazette == "" {
		gazette = "/data/purc_tariff.pdf"
	}
	return Config{
		Port:           port,
		DBDriver:       driver,
		DBDSN:          dsn,
		AutoMigrate:    boolEnv("ECGBILL_AUTO_MIGRATE"),
		GazettePDFPath: gazette,
		AuthEnabled:    boolEnv("ECGBILL_AUTH"),
	}
}

func boolEnv(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes", "on":
		return true
	}
	return false
}
