package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"pedibot/internal"
	"pedibot/internal/config"
	"pedibot/internal/pipeline"
	"pedibot/internal/server"
	"pedibot/internal/storage"
	"pedibot/internal/whatsapp"
	"pedibot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		must(cfg.Require("WHATSAPP_API_TOKEN", cfg.WhatsAppAPIToken))
		must(cfg.Require("WHATSAPP_PHONE_NUMBER_ID", cfg.WhatsAppPhoneNumberID))

		client := whatsapp.NewClient(cfg)
		service := pipeline.NewService(db, cfg, client, client, log)
		pool := worker.NewPool(cfg.QueueSize, service.ProcessMessage)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		pool.Start(ctx, cfg.WorkerCount)

		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.New(cfg, pool, log).Router()}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()

		log.Info("webhook server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			must(err)
		}
		// Drain before exiting so a worker mid-invoice finishes its writes.
		pool.Close()
		log.Info("drained, shutting down")
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "catalog xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		data, err := os.ReadFile(*file)
		must(err)
		loader := pipeline.NewCatalogLoader(db, log)
		result, err := loader.LoadXLSX(data)
		must(err)
		fmt.Printf("catalog import done inserted=%d skipped=%d\n", result.Inserted, result.Skipped)
	case "client:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "client name")
		phone := fs.String("phone", "", "client phone")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		id, err := db.UpsertClient(strings.TrimSpace(*name), strings.TrimSpace(*phone))
		must(err)
		fmt.Printf("client stored id=%d name=%s\n", id, *name)
	case "report:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rangeExpr := fs.String("range", "hoy", `range expression: "hoy", "<fecha> a hoy" or last-N-days integer`)
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewReportProcessor(db, log)
		report, err := processor.Process("reporte:\n" + *rangeExpr)
		must(err)
		fmt.Println(report)
	case "message:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		from := fs.String("from", "", "sender phone (wa_id)")
		text := fs.String("text", "", "message body")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*from) == "" || strings.TrimSpace(*text) == "" {
			must(fmt.Errorf("--from and --text are required"))
		}
		must(cfg.Require("WHATSAPP_API_TOKEN", cfg.WhatsAppAPIToken))

		client := whatsapp.NewClient(cfg)
		service := pipeline.NewService(db, cfg, client, client, log)
		raw, _ := json.Marshal(map[string]string{"source": "cli"})
		service.ProcessMessage(context.Background(), internal.InboundMessage{
			ID:   "cli-" + uuid.NewString(),
			From: *from,
			Body: *text,
			Raw:  raw,
		})
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: pedibot <command>")
	fmt.Println("commands:")
	fmt.Println("  serve")
	fmt.Println("  catalog:import --file=./catalogo.xlsx")
	fmt.Println("  client:add --name=... [--phone=...]")
	fmt.Println("  report:run [--range=hoy]")
	fmt.Println("  message:process --from=506... --text=...")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
