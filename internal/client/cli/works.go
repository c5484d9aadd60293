package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

// Generate prompts for an animation description and submits it. The server
// queues the work; rendering happens asynchronously.
func (a *App) Generate(ctx context.Context) error {
	prompt, err := getSimpleText(a.reader, "Describe the animation to generate", os.Stdout)
	if err != nil {
		return err
	}
	if prompt == "" {
		fmt.Println("Prompt cannot be empty")
		return nil
	}

	w, err := a.client.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Generate failed: %s", err.Error())
		return err
	}

	fmt.Printf("Queued work %s (status: %s)\n", w.ID, w.Status)
	return nil
}

// List prints the user's works, newest first.
func (a *App) List(ctx context.Context) error {
	works, err := a.client.UserWorks(ctx)
	if err != nil {
		log.Printf("Listing works failed: %s", err.Error())
		return err
	}

	if len(works) == 0 {
		fmt.Println("No works yet. Try 'generate'.")
		return nil
	}

	for _, w := range works {
		fmt.Printf("%s  %-9s  %s  %s\n", w.ID, w.Status, w.CreatedAt.Format("2006-01-02 15:04"), w.Prompt)
	}
	return nil
}

// Show prompts for a work ID and prints its details, including the video
// URL once rendering has completed.
func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter work ID", os.Stdout)
	if err != nil {
		return err
	}

	w, err := a.client.WorkDetail(ctx, id)
	if err != nil {
		log.Printf("Fetching work failed: %s", err.Error())
		return err
	}

	fmt.Printf("ID:      %s\n", w.ID)
	fmt.Printf("Status:  %s\n", w.Status)
	fmt.Printf("Prompt:  %s\n", w.Prompt)
	fmt.Printf("Created: %s\n", w.CreatedAt.Format("2006-01-02 15:04:05"))
	if w.VideoURL != "" {
		fmt.Printf("Video:   %s\n", w.VideoURL)
	}
	return nil
}

// Delete prompts for a work ID and removes it.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter work ID to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.DeleteWork(ctx, id); err != nil {
		log.Printf("Deleting work failed: %s", err.Error())
		return err
	}

	fmt.Println("Deleted")
	return nil
}
