package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/export"
	"github.com/bodega55/fototrack/internal/storage"
)

// Standalone daily sales summary: reads the group message log for one date
// and writes an .xlsx with the classified numeric mentions and per-user
// price totals.

func main() {
	logsDir := flag.String("logs", "data/logs", "base directory of group message logs")
	group := flag.String("group", "Ventas 55", "group name")
	date := flag.String("date", time.Now().Format("2006-01-02"), "date to process (YYYY-MM-DD)")
	outDir := flag.String("out", "data/resumenes", "output directory")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	day, err := time.ParseInLocation("2006-01-02", *date, time.Local)
	if err != nil {
		log.Fatalf("Invalid date %q: %v", *date, err)
	}

	logPath := storage.NewMessageLog(*logsDir, logger).PathFor(*group, day)
	fmt.Printf("Procesando %s ...\n", logPath)

	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No existe el archivo de log: %s\n", logPath)
			os.Exit(1)
		}
		log.Fatalf("Failed to open log: %v", err)
	}
	defer f.Close()

	records, err := export.ParseLog(f)
	if err != nil {
		log.Fatalf("Failed to parse log: %v", err)
	}

	tokens := export.Expand(records)
	if len(tokens) == 0 {
		fmt.Println("No se detectaron tallas ni precios en el archivo.")
		return
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	outputPath := filepath.Join(*outDir, fmt.Sprintf("informe_%s.xlsx", *date))
	if err := export.NewWriter(logger).Write(outputPath, tokens); err != nil {
		log.Fatalf("Failed to write workbook: %v", err)
	}

	fmt.Printf("Archivo generado: %s\n", outputPath)
}
