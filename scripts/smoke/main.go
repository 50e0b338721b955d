package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/atfitk/websystem-api/internal/client"
	"github.com/atfitk/websystem-api/internal/models"
	"github.com/atfitk/websystem-api/internal/webstate"
)

type step struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

type result struct {
	Step     step
	Err      error
	Duration time.Duration
}

func main() {
	var (
		base     string
		username string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:3001", "API base URL")
	flag.StringVar(&username, "username", "director", "Director account username")
	flag.StringVar(&password, "password", "Atfitk@Dir2024!", "Director account password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	api := client.New(base, client.WithHTTPClient(&http.Client{Timeout: timeout}))
	session := webstate.NewSession(api)
	roster := webstate.NewRoster(api)
	editor := webstate.NewEditor()

	var created *models.Student
	studentID := func() string {
		if created == nil {
			return ""
		}
		return created.ID
	}

	steps := []step{
		{Name: "health", Critical: true, Run: api.Health},
		{Name: "login", Critical: true, Run: func(ctx context.Context) error {
			session.Init(ctx)
			_, err := session.Login(ctx, username, password)
			return err
		}},
		{Name: "load roster", Critical: true, Run: roster.Load},
		{Name: "create student", Critical: true, Run: func(ctx context.Context) error {
			editor.Dispatch(webstate.SetBasic{Field: webstate.FieldFullName, Value: "Тестов Тест"})
			s, err := editor.Save(ctx, roster)
			created = s
			return err
		}},
		{Name: "get student", Critical: true, Run: func(ctx context.Context) error {
			s, err := api.GetStudent(ctx, studentID())
			if err != nil {
				return err
			}
			return expectEqual("fullName", "Тестов Тест", s.FullName)
		}},
		{Name: "update student", Critical: true, Run: func(ctx context.Context) error {
			editor.Dispatch(webstate.SetBasic{Field: webstate.FieldFullName, Value: "Тестов Обновлён"})
			if _, err := editor.Save(ctx, roster); err != nil {
				return err
			}
			s, err := api.GetStudent(ctx, studentID())
			if err != nil {
				return err
			}
			return expectEqual("fullName", "Тестов Обновлён", s.FullName)
		}},
		{Name: "export journal", Run: func(ctx context.Context) error {
			_, err := api.ExportJournal(ctx, models.StudentFilter{}, "csv")
			return err
		}},
		{Name: "student card", Run: func(ctx context.Context) error {
			_, err := api.StudentCard(ctx, studentID())
			return err
		}},
		{Name: "delete student", Critical: true, Run: func(ctx context.Context) error {
			return roster.Remove(ctx, studentID())
		}},
		{Name: "get deleted student", Critical: true, Run: func(ctx context.Context) error {
			_, err := api.GetStudent(ctx, studentID())
			return expectStatus(err, http.StatusNotFound)
		}},
		{Name: "repeat delete", Critical: true, Run: func(ctx context.Context) error {
			_, err := api.DeleteStudent(ctx, studentID())
			return expectStatus(err, http.StatusNotFound)
		}},
	}

	results := run(context.Background(), steps)
	printReport(results)

	var breaking, optional int
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		if res.Step.Critical {
			breaking++
		} else {
			optional++
		}
	}
	fmt.Printf("Critical failures: %d, Optional failures: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

// run stops after the first critical failure; later steps depend on earlier state.
func run(ctx context.Context, steps []step) []result {
	results := make([]result, 0, len(steps))
	for _, s := range steps {
		start := time.Now()
		err := s.Run(ctx)
		results = append(results, result{Step: s, Err: err, Duration: time.Since(start)})
		if err != nil && s.Critical {
			log.Printf("aborting after %q: %v", s.Name, err)
			break
		}
	}
	return results
}

func expectEqual(field, want, got string) error {
	if want != got {
		return fmt.Errorf("%s: want %q, got %q", field, want, got)
	}
	return nil
}

func expectStatus(err error, status int) error {
	if err == nil {
		return errors.New("request unexpectedly succeeded")
	}
	if got := client.StatusOf(err); got != status {
		return fmt.Errorf("want HTTP %d, got %v", status, err)
	}
	return nil
}

func printReport(results []result) {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Step.Name, res.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v | Critical: %t\n", res.Err, res.Step.Critical)
		}
	}
}
