// Command lsmkv-cli provides a small CLI driver for exercising a lsmkv
// database from the shell.
//
// Usage:
//
//	lsmkv-cli --db=<path> <command> [args]
//
// Commands:
//
//	put <key> <value>   Put a key-value pair
//	get <key>           Get the value for a key
//	delete <key>        Delete a key
//	flush               Force a memtable rotation and flush
//	stats               Print per-level file counts and sizes
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dialtr/lsmkv"
)

var (
	dbPath = flag.String("db", "", "Path to the database (required)")
	sync   = flag.Bool("sync", false, "Sync the WAL record for this write")
)

func main() {
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "error: --db flag is required")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	db, err := lsmkv.Open(lsmkv.DefaultOptions(*dbPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "put":
		err = cmdPut(db, args)
	case "get":
		err = cmdGet(db, args)
	case "delete":
		err = cmdDelete(db, args)
	case "flush":
		err = db.Flush()
	case "stats":
		err = cmdStats(db)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdPut(db *lsmkv.DB, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: put <key> <value>")
	}
	return db.Put(lsmkv.WriteOptions{Sync: *sync}, []byte(args[0]), []byte(args[1]))
}

func cmdGet(db *lsmkv.DB, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <key>")
	}
	value, err := db.Get(lsmkv.ReadOptions{}, []byte(args[0]))
	if err != nil {
		var nf *lsmkv.NotFoundError
		if errors.As(err, &nf) {
			fmt.Println("(not found)")
			return nil
		}
		return err
	}
	fmt.Println(string(value))
	return nil
}

func cmdDelete(db *lsmkv.DB, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <key>")
	}
	return db.Delete(lsmkv.WriteOptions{Sync: *sync}, []byte(args[0]))
}

func cmdStats(db *lsmkv.DB) error {
	for _, s := range db.Stats() {
		fmt.Printf("L%d: %d files, %d bytes\n", s.Level, s.NumFiles, s.Bytes)
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: lsmkv-cli --db=<path> <command> [args]

commands:
  put <key> <value>   put a key-value pair
  get <key>           get the value for a key
  delete <key>        delete a key
  flush               force a memtable rotation and flush
  stats               print per-level file counts and sizes`)
}
