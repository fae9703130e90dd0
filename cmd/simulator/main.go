package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"
)

const defaultPassword = "testpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:5000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "scenario":
		scenarioCmd(apiURL, args)
	case "isolation":
		isolationCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Task Simulator - Development tool for exercising the task tracker API

USAGE:
  simulator <command> [options]

COMMANDS:
  scenario   Register, log in and run a create/list/update/delete round trip
  isolation  Check that one user cannot see or change another user's tasks
  populate   Create users with tasks for manual testing
  watch      Log in and print the live task event stream
  help       Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:5000)

EXAMPLES:
  # Run the basic round trip
  simulator scenario

  # Create 3 users with 5 tasks each
  simulator populate --users=3 --tasks=5

  # Follow an existing account's events
  simulator watch --email=ann@example.com --password=secret1`)
}

// step prints a label, runs fn and exits on failure.
func step(label string, fn func() error) {
	fmt.Printf("%s... ", label)
	if err := fn(); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func expectStatus(err error, status int) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == status {
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected status %d, request succeeded", status)
	}
	return fmt.Errorf("expected status %d, got: %w", status, err)
}

func scenarioCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("scenario", flag.ExitOnError)
	title := fs.String("title", "Buy milk", "Title of the task to create")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Task Simulator: Scenario ===")
	fmt.Println()

	var (
		user  *User
		token string
		task  *Task
	)

	step("Registering and logging in", func() error {
		var err error
		user, token, err = client.RegisterAndLogin("Ann", defaultPassword)
		return err
	})
	fmt.Printf("  User: %s <%s>\n", user.Name, user.Email)

	step("Creating task", func() error {
		var err error
		task, err = client.CreateTask(token, *title, nil)
		if err != nil {
			return err
		}
		if task.Owner != user.ID {
			return fmt.Errorf("owner is %s, want %s", task.Owner, user.ID)
		}
		if task.Description != nil {
			return fmt.Errorf("description is %q, want null", *task.Description)
		}
		return nil
	})
	fmt.Printf("  Task: %s (%s)\n", task.Title, task.ID)

	step("Listing tasks", func() error {
		tasks, err := client.ListTasks(token)
		if err != nil {
			return err
		}
		if len(tasks) != 1 || tasks[0].ID != task.ID {
			return fmt.Errorf("expected exactly the created task, got %d tasks", len(tasks))
		}
		return nil
	})

	step("Rejecting empty title on update", func() error {
		_, err := client.UpdateTask(token, task.ID, "", nil)
		return expectStatus(err, http.StatusBadRequest)
	})

	step("Updating task", func() error {
		desc := "2 litres"
		updated, err := client.UpdateTask(token, task.ID, *title+" (done)", &desc)
		if err != nil {
			return err
		}
		if updated.Description == nil || *updated.Description != desc {
			return fmt.Errorf("description not updated")
		}
		return nil
	})

	step("Deleting task", func() error {
		return client.DeleteTask(token, task.ID)
	})

	step("Deleting again reports not found", func() error {
		return expectStatus(client.DeleteTask(token, task.ID), http.StatusNotFound)
	})

	fmt.Println()
	fmt.Println("Scenario completed successfully")
}

func isolationCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("isolation", flag.ExitOnError)
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Task Simulator: Isolation ===")
	fmt.Println()

	var (
		ownerToken    string
		intruderToken string
		task          *Task
	)

	step("Creating owner and intruder", func() error {
		var err error
		if _, ownerToken, err = client.RegisterAndLogin("Owner", defaultPassword); err != nil {
			return err
		}
		_, intruderToken, err = client.RegisterAndLogin("Intruder", defaultPassword)
		return err
	})

	step("Owner creates a private task", func() error {
		var err error
		task, err = client.CreateTask(ownerToken, "private", nil)
		return err
	})

	step("Intruder list does not include it", func() error {
		tasks, err := client.ListTasks(intruderToken)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.ID == task.ID {
				return fmt.Errorf("foreign task visible in list")
			}
		}
		return nil
	})

	step("Intruder update is not found", func() error {
		_, err := client.UpdateTask(intruderToken, task.ID, "hijacked", nil)
		return expectStatus(err, http.StatusNotFound)
	})

	step("Intruder delete is not found", func() error {
		return expectStatus(client.DeleteTask(intruderToken, task.ID), http.StatusNotFound)
	})

	step("Task is unchanged for owner", func() error {
		tasks, err := client.ListTasks(ownerToken)
		if err != nil {
			return err
		}
		if len(tasks) != 1 || tasks[0].Title != "private" {
			return fmt.Errorf("owner's task was modified")
		}
		return nil
	})

	step("Missing token is unauthenticated", func() error {
		_, err := client.ListTasks("")
		return expectStatus(err, http.StatusUnauthorized)
	})

	fmt.Println()
	fmt.Println("Isolation checks passed")
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 2, "Number of users to create")
	tasks := fs.Int("tasks", 3, "Number of tasks per user")
	fs.Parse(args)

	if *users < 1 || *tasks < 0 {
		fmt.Println("Error: --users must be at least 1 and --tasks non-negative")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Task Simulator: Populate ===")
	fmt.Println()

	for i := 1; i <= *users; i++ {
		user, token, err := client.RegisterAndLogin(fmt.Sprintf("User%d", i), defaultPassword)
		if err != nil {
			fmt.Printf("Failed to create user %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("User %d: %s / %s\n", i, user.Email, defaultPassword)

		for j := 1; j <= *tasks; j++ {
			desc := fmt.Sprintf("Generated by the simulator for %s", user.Name)
			task, err := client.CreateTask(token, fmt.Sprintf("Task %d", j), &desc)
			if err != nil {
				fmt.Printf("  Failed to create task %d: %v\n", j, err)
				os.Exit(1)
			}
			fmt.Printf("  + %s (%s)\n", task.Title, task.ID)
		}
	}
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: --email and --password are required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	login, err := client.Login(*email, *password)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}

	conn, err := client.Stream(login.Token)
	if err != nil {
		fmt.Printf("Failed to open stream: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Watching task events for %s (Ctrl+C to stop)\n", login.User.Email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	messages := make(chan StreamMessage)
	go func() {
		defer close(messages)
		for {
			var msg StreamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				fmt.Printf("Stream closed: %v\n", err)
				return
			}
			messages <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			at := time.UnixMilli(msg.Timestamp).Format(time.TimeOnly)
			var pretty interface{}
			if json.Unmarshal(msg.Payload, &pretty) == nil {
				out, _ := json.Marshal(pretty)
				fmt.Printf("[%s] %-13s %s\n", at, msg.Type, out)
			} else {
				fmt.Printf("[%s] %s\n", at, msg.Type)
			}
		case <-interrupt:
			fmt.Println("Stopping")
			return
		}
	}
}
