// Command client is an interactive terminal front end for the teller
// protocol. Each prompt action sends one command and prints the decoded
// reply.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goteller/pkg/client"
	"github.com/NicolasHaas/goteller/pkg/logging"
)

const usage = `commands:
  login <account> <pin>   authenticate
  balance                 show current balance
  withdraw <amount>       withdraw a positive amount
  deposit <amount>        deposit a positive amount
  quit                    say goodbye and exit
`

func main() {
	addr := flag.String("addr", "127.0.0.1:2525", "teller server address")
	flag.Parse()

	// Default to "info"; override with GOTELLER_LOG_LEVEL env var.
	level := "info"
	if v := os.Getenv("GOTELLER_LOG_LEVEL"); v != "" {
		level = v
	}
	format := "text"
	if v := os.Getenv("GOTELLER_LOG_FORMAT"); v != "" {
		format = v
	}
	_ = logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	fmt.Printf("connected to %s\n%s", *addr, usage)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <account> <pin>")
				continue
			}
			if err := c.Login(fields[1], fields[2]); err != nil {
				fmt.Printf("login failed: %v\n", err)
				continue
			}
			fmt.Printf("logged in as %s\n", fields[1])

		case "balance":
			bal, err := c.Balance()
			if err != nil {
				fmt.Printf("balance failed: %v\n", err)
				continue
			}
			fmt.Printf("balance: %s\n", bal)

		case "withdraw", "deposit":
			if len(fields) != 2 {
				fmt.Printf("usage: %s <amount>\n", fields[0])
				continue
			}
			amount, err := decimal.NewFromString(fields[1])
			if err != nil || !amount.IsPositive() {
				fmt.Println("amount must be a positive number")
				continue
			}
			if fields[0] == "withdraw" {
				err = c.Withdraw(amount)
			} else {
				err = c.Deposit(amount)
			}
			if err != nil {
				fmt.Printf("%s failed: %v\n", fields[0], err)
				continue
			}
			fmt.Println("ok")

		case "quit", "exit":
			if err := c.Quit(); err != nil {
				fmt.Fprintf(os.Stderr, "quit: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("bye")
			return

		case "help":
			fmt.Print(usage)

		default:
			fmt.Printf("unknown command %q (try help)\n", fields[0])
		}
	}
}
