package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

func (a *App) runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	typeFilter := fs.String("type", "", "Only list instances of this type")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	reg, err := a.registry()
	if err != nil {
		return a.fail(err)
	}

	var instances []instance.Instance
	if *typeFilter != "" {
		kind, err := instance.ParseKind(*typeFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitUsageError
		}
		instances = reg.ListByKind(kind)
	} else {
		instances = reg.List()
	}

	if len(instances) == 0 {
		fmt.Println("Info: No Redis instances found")
		fmt.Println("  Start one with: redis-up basic start")
		return ExitSuccess
	}

	fmt.Println("List: Redis Instances")
	fmt.Println()

	for _, inst := range instances {
		fmt.Printf("  %s %s (%s)\n", kindIcon(inst.Kind), inst.Name, inst.Kind)
		fmt.Printf("    Address: %s:%d\n", inst.Connection.Host, inst.Connection.Port)
		if a.verbose {
			fmt.Printf("    Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
			fmt.Printf("    Containers: %s\n", strings.Join(inst.Containers, ", "))
			if len(inst.Connection.Extra) > 0 {
				fmt.Printf("    Additional Ports: %v\n", inst.Connection.Extra)
			}
		}
		fmt.Println()
	}

	fmt.Printf("Total: %d instances\n", len(instances))
	return ExitSuccess
}
