package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/contactkeval/option-pde/internal/data"
	"github.com/contactkeval/option-pde/internal/pde"
	"github.com/contactkeval/option-pde/internal/report"
)

// env holds operational overrides, read from OPTIONPDE_* variables.
type env struct {
	APIKey    string `envconfig:"API_KEY"`
	Port      string `envconfig:"PORT" default:":8080"`
	Verbosity int    `envconfig:"VERBOSITY" default:"-1"`
	Seed      int64  `envconfig:"SEED"`
}

func main() {
	configPath := flag.String("config", filepath.Join("configs", "european_call.json"), "path to JSON config")
	rest := flag.Bool("rest", false, "run as REST server (accept pricing jobs)")
	port := flag.String("port", "", "REST server listen address (overrides OPTIONPDE_PORT)")
	flag.Parse()

	var ev env
	if err := envconfig.Process("optionpde", &ev); err != nil {
		log.Fatalf("reading environment: %v", err)
	}

	cfgData, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}

	var cfg pde.Config
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if ev.Verbosity >= 0 {
		cfg.Verbosity = ev.Verbosity
	}

	// choose provider
	var prov data.Provider
	if ev.APIKey != "" {
		prov = data.NewMassiveDataProvider(ev.APIKey)
		log.Printf("[info] massive provider enabled")
	} else {
		prov = data.NewSyntheticProvider(ev.Seed)
		log.Printf("[info] synthetic provider enabled")
	}

	engine := pde.NewEngine(&cfg, prov)

	if *rest {
		addr := ev.Port
		if *port != "" {
			addr = *port
		}
		mux := http.NewServeMux()
		mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
			// quick endpoint to run a pricing job once with the loaded config
			log.Printf("[info] received /run request")
			res, err := engine.Run()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(res)
		})
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		log.Printf("[info] starting REST server on %s", addr)
		log.Fatal(http.ListenAndServe(addr, mux))
		return
	}

	start := time.Now()
	res, err := engine.Run()
	if err != nil {
		log.Fatalf("pricing run failed: %v", err)
	}
	if err := writeReports(res, cfg.ReportDir); err != nil {
		log.Fatalf("writing reports: %v", err)
	}
	log.Printf("[done] finished in %v, wrote %d grid nodes to %s", time.Since(start), len(res.S), cfg.ReportDir)
}

// writeReports creates the output directory and writes both report
// formats. Any failure is returned so the run does not report success
// with missing output.
func writeReports(res *pde.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	if err := report.WriteJSON(res, dir); err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	if err := report.WriteCSV(res, dir); err != nil {
		return fmt.Errorf("writing CSV report: %w", err)
	}
	return nil
}
