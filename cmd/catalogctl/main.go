// Command catalogctl lists and edits catalog products, uploading their photos and documents.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"productos_catalog/client"
	"productos_catalog/config"
	"productos_catalog/lib"
	"productos_catalog/mirror"
	"productos_catalog/structs"
	"productos_catalog/uploads"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
)

const usage = `usage: catalogctl <command> [flags]

commands:
  list                                     print every product
  get <id>                                 print one product
  create -name N -number N [-photo f]... [-doc f]...
  update <id> -name N -number N [-photo f]... [-doc f]...
  delete [-yes] <id>                       delete after confirmation
  token [-subject s]                       mint a service token
`

// storeFactory opens the object store used for uploads. The returned func releases it.
type storeFactory func(ctx context.Context) (uploads.ObjectStore, func(), error)

type app struct {
	logger   *gecho.Logger
	cfg      *structs.Config
	catalog  *client.Client
	newStore storeFactory
	in       io.Reader
	out      io.Writer
}

// stringList collects a repeatable flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		logger:   config.GetLogger(),
		cfg:      config.GetConfig(),
		catalog:  client.Default(),
		newStore: jetStreamStore,
		in:       os.Stdin,
		out:      os.Stdout,
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}

func jetStreamStore(ctx context.Context) (uploads.ObjectStore, func(), error) {
	cfg := config.GetConfig().Storage
	store, err := uploads.NewJetStreamObjectStore(cfg.NatsURL, cfg.Bucket, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx)
	case "get":
		return a.get(ctx, rest)
	case "create":
		return a.save(ctx, rest, false)
	case "update":
		return a.save(ctx, rest, true)
	case "delete":
		return a.delete(ctx, rest)
	case "token":
		return a.token(rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one product id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

func (a *app) list(ctx context.Context) error {
	products, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}
	return a.print(products)
}

func (a *app) get(ctx context.Context, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	product, err := a.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	return a.print(product)
}

// save handles both create and update. update expects the id before the flags.
func (a *app) save(ctx context.Context, args []string, update bool) error {
	var id int64
	if update {
		if len(args) == 0 {
			return errors.New("expected a product id")
		}
		var err error
		if id, err = parseID(args[:1]); err != nil {
			return err
		}
		args = args[1:]
	}

	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "product name")
	number := fs.String("number", "", "product number")
	var photos, docs stringList
	fs.Var(&photos, "photo", "photo file, repeatable")
	fs.Var(&docs, "doc", "document file, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel := &uploads.Selection{}
	for _, p := range photos {
		f, err := uploads.LoadFile(p)
		if err != nil {
			return err
		}
		if err := sel.AddPhoto(f); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	for _, d := range docs {
		f, err := uploads.LoadFile(d)
		if err != nil {
			return err
		}
		if err := sel.AddDocument(f); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	if err := sel.Validate(); err != nil {
		return err
	}

	store, closeStore, err := a.newStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}
	defer closeStore()

	coordinator := uploads.NewCoordinator(store, a.logger, uploads.ParseClassification(a.cfg.Client.Classification))

	var batch *uploads.Batch
	if update {
		batch, err = coordinator.UploadAndUpdate(ctx, a.catalog, id, *name, *number, sel)
	} else {
		batch, err = coordinator.UploadAndCreate(ctx, a.catalog, *name, *number, sel)
	}
	// Let uploads still in flight finish before the store is closed
	_ = batch.Wait()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "saved")
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}

	catalog := mirror.NewCatalog(a.catalog, a.logger)
	catalog.Refresh(ctx)

	found := false
	for _, p := range catalog.Snapshot() {
		if p.ID == id {
			catalog.ConfirmDeletion(p)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %d", client.ErrNotFound, id)
	}

	pending, _ := catalog.Pending()
	if !*yes && !a.confirm(fmt.Sprintf("Delete %q (%s)? [y/N] ", pending.Name, pending.Number)) {
		catalog.CancelDeletion()
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}

	catalog.PerformDeletion(ctx)
	for _, p := range catalog.Snapshot() {
		if p.ID == id {
			return fmt.Errorf("product %d was not deleted", id)
		}
	}

	fmt.Fprintln(a.out, "deleted")
	return nil
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.out, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *app) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(a.out)
	subject := fs.String("subject", "catalogctl", "token subject")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := lib.IssueServiceToken(a.cfg.Auth.ServiceTokenSecret, *subject, a.cfg.Auth.ServiceTokenExpiry)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}
