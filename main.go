package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"RagBot/app/clients"
	"RagBot/app/configs"
	"RagBot/app/rag"
	"RagBot/app/runtime"
	"RagBot/app/utils"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [-config file] <command> [args]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  serve               run the chat front-ends (default)")
	fmt.Fprintln(out, "  ingest <paths...>   add files or folders to the collection")
	fmt.Fprintln(out, "  ask [-dry-run] <q>  answer one question and exit")
	fmt.Fprintln(out)
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML configs file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err = configs.ApplyEnv(cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err = cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := "serve", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "ingest":
		err = ingest(ctx, cfg, args)
	case "ask":
		err = ask(ctx, cfg, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func serve(ctx context.Context, cfg *configs.Config) error {
	// The terminal front-end owns the screen, so logs only go to the ring.
	if hasConsole(cfg) {
		runtime.InstallAuditLogger(cfg.Runtime.AuditLines, nil)
	} else {
		runtime.InstallAuditLogger(cfg.Runtime.AuditLines, os.Stderr)
	}

	emb, err := cfg.BuildEmbedder(ctx)
	if err != nil {
		return err
	}
	store, err := cfg.BuildVectorStore(ctx, emb)
	if err != nil {
		return err
	}
	defer store.Close()

	ingester, err := cfg.BuildIngester(store)
	if err != nil {
		return err
	}
	if err = ingester.Bootstrap(ctx, cfg.Ingest.Folder); err != nil {
		return fmt.Errorf("bootstrap collection: %w", err)
	}

	llm, err := cfg.BuildBackend(ctx)
	if err != nil {
		return err
	}
	h := cfg.BuildHandler(store, llm)

	db, err := cfg.BuildStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	rt := cfg.BuildRuntime(db)
	registry := clients.NewRegistry()
	defer registry.CloseAll()
	if err = cfg.InitializeClients(registry, rt); err != nil {
		return err
	}
	if len(registry.GetAll()) == 0 {
		return errors.New("no chat clients enabled, set TELEGRAM_TOKEN or DISCORD_TOKEN or configure one")
	}
	registry.BindHandler(h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Start(gctx) })
	g.Go(func() error { return registry.RunAll(gctx) })
	if cfg.Ingest.Watch && cfg.Ingest.Folder != "" {
		watcher, err := rag.NewWatcher(cfg.Ingest.Folder, ingester)
		if err != nil {
			return err
		}
		g.Go(func() error { return watcher.Run(gctx) })
	}

	log.Println("🤖 Bot is running...")
	if err = g.Wait(); err != nil && !errors.Is(err, clients.ErrStopped) {
		return err
	}
	log.Println("👋 Bye")
	return nil
}

func ingest(ctx context.Context, cfg *configs.Config, args []string) error {
	if len(args) == 0 {
		args = []string{cfg.Ingest.Folder}
	}
	var paths []string
	for _, arg := range args {
		if arg == "" {
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := utils.LoadFilesFromDir(arg, rag.SupportedExtensions)
		if err != nil {
			return fmt.Errorf("list %s: %w", arg, err)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return errors.New("nothing to ingest, pass files or folders or set FOLDER_RAG")
	}

	emb, err := cfg.BuildEmbedder(ctx)
	if err != nil {
		return err
	}
	store, err := cfg.BuildVectorStore(ctx, emb)
	if err != nil {
		return err
	}
	defer store.Close()

	ingester, err := cfg.BuildIngester(store)
	if err != nil {
		return err
	}
	report, err := ingester.Ingest(ctx, paths, nil)
	if err != nil {
		return err
	}
	fmt.Println(report.Tree())
	return nil
}

func ask(ctx context.Context, cfg *configs.Config, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "print the prompt instead of calling the model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return errors.New("ask needs a question")
	}

	emb, err := cfg.BuildEmbedder(ctx)
	if err != nil {
		return err
	}
	store, err := cfg.BuildVectorStore(ctx, emb)
	if err != nil {
		return err
	}
	defer store.Close()

	if *dryRun {
		h := cfg.BuildHandler(store, nil)
		contexts, err := h.Retrieve(ctx, query)
		if err != nil {
			return err
		}
		fmt.Println(h.ConstructPrompt(query, contexts))
		return nil
	}

	llm, err := cfg.BuildBackend(ctx)
	if err != nil {
		return err
	}
	answer, err := cfg.BuildHandler(store, llm).GenerateResponse(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func hasConsole(cfg *configs.Config) bool {
	for _, c := range cfg.Clients {
		if c.Enabled && c.Type == "console" {
			return true
		}
	}
	return false
}
