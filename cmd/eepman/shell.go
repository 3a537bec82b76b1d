package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/eepman/eepman/pkg/eepman"
)

// cmdShell implements SPEC_FULL.md §13's supplemented `shell` command: an
// interactive REPL over an already-open Store. Grounded on cmd/sloty's
// liner-based REPL (history file, tab completion, a command switch), with
// the command set swapped for the Store façade's operations.
func cmdShell(io *IO, s *eepman.Store) int {
	sh := &shell{store: s, io: io}
	if err := sh.run(); err != nil {
		io.ErrPrintln("error:", err)
		return 1
	}
	return 0
}

type shell struct {
	store *eepman.Store
	io    *IO
	line  *liner.State
}

func shellHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".eepman_history")
}

func (sh *shell) run() error {
	sh.line = liner.NewLiner()
	defer sh.line.Close()

	sh.line.SetCtrlCAborts(true)
	sh.line.SetCompleter(sh.completer)

	if f, err := os.Open(shellHistoryFile()); err == nil {
		_, _ = sh.line.ReadHistory(f)
		_ = f.Close()
	}

	fmt.Println("eepman shell - get/set/rm/keys/info/verify, 'help' for a list, 'exit' to quit")

	for {
		text, err := sh.line.Prompt("eepman> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sh.line.AppendHistory(text)

		fields := strings.Fields(text)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "exit", "quit", "q":
			sh.saveHistory()
			return nil
		case "help", "?":
			sh.printHelp()
		case "get":
			sh.cmdGet(args)
		case "set":
			sh.cmdSet(args)
		case "rm", "remove":
			sh.cmdRemove(args)
		case "keys":
			sh.cmdKeys()
		case "info":
			sh.cmdInfo()
		case "verify":
			sh.cmdVerify()
		case "clear":
			sh.cmdClear()
		default:
			fmt.Println("unknown command:", cmd, "(try 'help')")
		}
	}
}

func (sh *shell) saveHistory() {
	path := shellHistoryFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = sh.line.WriteHistory(f)
		_ = f.Close()
	}
}

func (sh *shell) completer(line string) []string {
	commands := []string{"get", "set", "rm", "remove", "keys", "info", "verify", "clear", "help", "exit", "quit"}
	var out []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (sh *shell) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  get <key>          print a key's value")
	fmt.Println("  set <key> <value>  set a key")
	fmt.Println("  rm <key>           delete a key")
	fmt.Println("  keys               list all keys")
	fmt.Println("  info               show the replica pool")
	fmt.Println("  verify             check and repair replica digests")
	fmt.Println("  clear              reset the store to {}")
	fmt.Println("  help               show this help")
	fmt.Println("  exit / quit / q    leave the shell")
}

func (sh *shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return
	}
	v, err := sh.store.Get(args[0], -1)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(v)
}

func (sh *shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set <key> <value>")
		return
	}
	if err := sh.store.Set(args[0], args[1], 0); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ok")
}

func (sh *shell) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: rm <key>")
		return
	}
	if err := sh.store.Remove(args[0]); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ok")
}

func (sh *shell) cmdKeys() {
	keys, err := sh.store.Keys()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

func (sh *shell) cmdInfo() {
	for _, r := range sh.store.Info() {
		mark := ""
		if r.Authoritative {
			mark = " (authoritative)"
		}
		fmt.Printf("%s block_size=%d block_count=%d total_bytes=%d%s\n",
			r.Path, r.BlockSize, r.BlockCount, r.TotalBytes, mark)
	}
}

func (sh *shell) cmdVerify() {
	outcome, err := sh.store.Verify()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if outcome == eepman.VerifyRepaired {
		fmt.Println("repaired")
		return
	}
	fmt.Println("all_passed")
}

func (sh *shell) cmdClear() {
	if err := sh.store.Clear(); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("ok")
}
