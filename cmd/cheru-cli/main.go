package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cheru-app/cherud/client/launcher"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client, err := launcher.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	cmd := os.Args[1]

	if cmd == "interactive" {
		runInteractive(client)
		return
	}

	if err := runCommand(client, cmd, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [args...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  apps [query]           - Search applications\n")
	fmt.Fprintf(os.Stderr, "  folders <query>        - Search folders\n")
	fmt.Fprintf(os.Stderr, "  images <query>         - Search images\n")
	fmt.Fprintf(os.Stderr, "  contents <query>       - Search file contents\n")
	fmt.Fprintf(os.Stderr, "  actions [query]        - Search system actions\n")
	fmt.Fprintf(os.Stderr, "  browse <path> [filter] - List a directory\n")
	fmt.Fprintf(os.Stderr, "  launch <target>        - Validate and launch a target\n")
	fmt.Fprintf(os.Stderr, "  open <path>            - Validate and open a path\n")
	fmt.Fprintf(os.Stderr, "  index-size             - Application index size\n")
	fmt.Fprintf(os.Stderr, "  stats                  - Index and launch statistics\n")
	fmt.Fprintf(os.Stderr, "  hotkey                 - Configured launcher hotkey\n")
	fmt.Fprintf(os.Stderr, "  interactive            - Interactive mode\n")
}

func runCommand(client *launcher.Client, cmd string, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch cmd {
	case "apps":
		return printResults(client.SearchApps(arg(0)))
	case "folders":
		if len(args) < 1 {
			return fmt.Errorf("usage: folders <query>")
		}
		return printResults(client.SearchFolders(args[0]))
	case "images":
		if len(args) < 1 {
			return fmt.Errorf("usage: images <query>")
		}
		return printResults(client.SearchImages(args[0]))
	case "contents":
		if len(args) < 1 {
			return fmt.Errorf("usage: contents <query>")
		}
		return printResults(client.SearchContents(args[0]))
	case "actions":
		return printResults(client.SearchActions(arg(0)))
	case "browse":
		if len(args) < 1 {
			return fmt.Errorf("usage: browse <path> [filter]")
		}
		return printResults(client.Browse(args[0], arg(1)))
	case "launch":
		if len(args) < 1 {
			return fmt.Errorf("usage: launch <target>")
		}
		if err := client.Launch(args[0]); err != nil {
			return err
		}
		fmt.Println("launched")
		return nil
	case "open":
		if len(args) < 1 {
			return fmt.Errorf("usage: open <path>")
		}
		if err := client.OpenPath(args[0]); err != nil {
			return err
		}
		fmt.Println("opened")
		return nil
	case "index-size":
		n, err := client.IndexSize()
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	case "stats":
		stats, err := client.Stats()
		if err != nil {
			return err
		}
		for k, v := range stats {
			fmt.Printf("%s: %s\n", k, v)
		}
		return nil
	case "hotkey":
		hk, err := client.Hotkey()
		if err != nil {
			return err
		}
		fmt.Println(hk)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printResults(results []launcher.Result, err error) error {
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Description != "" {
			fmt.Printf("[%s] %s\t%s\t(%s)\n", r.Kind, r.Name, r.Target, r.Description)
		} else {
			fmt.Printf("[%s] %s\t%s\n", r.Kind, r.Name, r.Target)
		}
	}
	return nil
}

func runInteractive(client *launcher.Client) {
	fmt.Println("cheru-cli interactive mode; 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		fields := strings.Fields(line)
		if err := runCommand(client, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}
