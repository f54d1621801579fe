package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mtzanidakis/hacksim/internal/config"
	"github.com/mtzanidakis/hacksim/internal/keyring"
	"github.com/mtzanidakis/hacksim/internal/store"
)

func runKeyring(args []string) error {
	if len(args) == 0 {
		printKeyringUsage()
		return nil
	}

	passphrase := os.Getenv("HACKSIM_KEYRING_PASSPHRASE")
	if passphrase == "" {
		return fmt.Errorf("HACKSIM_KEYRING_PASSPHRASE environment variable is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	kr := keyring.New(passphrase, db)

	switch args[0] {
	case "list":
		return keyringList(db)
	case "set":
		return keyringSet(kr, args[1:])
	case "get":
		return keyringGet(kr, args[1:])
	case "delete":
		return keyringDelete(db, args[1:])
	default:
		printKeyringUsage()
		return fmt.Errorf("unknown keyring command: %s", args[0])
	}
}

func printKeyringUsage() {
	fmt.Fprintf(os.Stderr, `Usage: hacksim keyring <command>

Commands:
  list                   List stored credentials (names only)
  set <name> <value>     Store an encrypted credential
  get <name>             Retrieve and decrypt a credential
  delete <name>          Delete a credential

Environment:
  HACKSIM_KEYRING_PASSPHRASE   Required. Encryption passphrase.
`)
}

func keyringList(db *store.Store) error {
	secrets, err := db.ListSecrets()
	if err != nil {
		return err
	}
	if len(secrets) == 0 {
		fmt.Println("No credentials stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUPDATED")
	for _, s := range secrets {
		fmt.Fprintf(w, "%s\t%s\n", s.Name, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func keyringSet(kr *keyring.Keyring, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: hacksim keyring set <name> <value>")
	}
	if err := kr.StoreCredential(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Credential %q saved\n", args[0])
	return nil
}

func keyringGet(kr *keyring.Keyring, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hacksim keyring get <name>")
	}
	value, err := kr.Credential(args[0])
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("credential %q not found", args[0])
	}
	fmt.Println(value)
	return nil
}

func keyringDelete(db *store.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hacksim keyring delete <name>")
	}
	if err := db.DeleteSecret(args[0]); err != nil {
		return err
	}
	fmt.Printf("Credential %q deleted\n", args[0])
	return nil
}
