package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mvreilly/daydeck/internal/task"
)

var addFlags struct {
	title    string
	desc     string
	priority string
	category string
	estimate int
	block    string
	subtasks []string
	tags     []string
	criteria string
}

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to the day",
	Long: `Add a task to the day document. The title comes from the positional
argument or --title; when neither is given an interactive form collects
the task details.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addFlags.title, "title", "t", "", "Task title")
	addCmd.Flags().StringVar(&addFlags.desc, "desc", "", "Task description")
	addCmd.Flags().StringVarP(&addFlags.priority, "priority", "p", "", "Priority: P1, P2, or P3")
	addCmd.Flags().StringVarP(&addFlags.category, "category", "c", "", "Category (development, design, admin, learning, personal, meeting, planning)")
	addCmd.Flags().IntVarP(&addFlags.estimate, "estimate", "e", 0, "Estimated minutes (5-480)")
	addCmd.Flags().StringVarP(&addFlags.block, "block", "b", "", "Time block: morning, afternoon, or evening")
	addCmd.Flags().StringArrayVar(&addFlags.subtasks, "subtask", nil, "Subtask title (repeatable)")
	addCmd.Flags().StringArrayVar(&addFlags.tags, "tag", nil, "Tag (repeatable)")
	addCmd.Flags().StringVar(&addFlags.criteria, "criteria", "", "Success criteria")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && addFlags.title == "" {
		addFlags.title = args[0]
	}

	if addFlags.title == "" {
		if err := runAddForm(); err != nil {
			return err
		}
	}

	in := task.Input{
		Title:            addFlags.title,
		Description:      addFlags.desc,
		Priority:         task.Priority(addFlags.priority),
		Category:         task.Category(addFlags.category),
		EstimatedMinutes: addFlags.estimate,
		TimeBlock:        task.TimeBlock(addFlags.block),
		Subtasks:         addFlags.subtasks,
		Tags:             addFlags.tags,
		SuccessCriteria:  addFlags.criteria,
	}

	sess, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer sess.Close()

	t, err := sess.CreateTask(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added %q (%s) to %s\n", t.Title, shortID(t.ID), sess.Date())
	return nil
}

// runAddForm collects task details interactively when no title was given.
func runAddForm() error {
	var estimate string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&addFlags.title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title must not be empty")
					}
					if len(s) > task.MaxTitleLen {
						return fmt.Errorf("title exceeds %d characters", task.MaxTitleLen)
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				CharLimit(task.MaxDescriptionLen).
				Value(&addFlags.desc),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("P1 - critical", "P1"),
					huh.NewOption("P2 - normal", "P2"),
					huh.NewOption("P3 - low", "P3"),
				).
				Value(&addFlags.priority),
			huh.NewSelect[string]().
				Title("Time block").
				Options(
					huh.NewOption("unscheduled", ""),
					huh.NewOption("morning", "morning"),
					huh.NewOption("afternoon", "afternoon"),
					huh.NewOption("evening", "evening"),
				).
				Value(&addFlags.block),
			huh.NewInput().
				Title("Estimated minutes").
				Placeholder("30").
				Value(&estimate).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					n, err := strconv.Atoi(s)
					if err != nil {
						return fmt.Errorf("must be a number")
					}
					if n < task.MinEstimateMins || n > task.MaxEstimateMins {
						return fmt.Errorf("must be between %d and %d", task.MinEstimateMins, task.MaxEstimateMins)
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if estimate != "" {
		n, err := strconv.Atoi(estimate)
		if err != nil {
			return fmt.Errorf("invalid estimate %q", estimate)
		}
		addFlags.estimate = n
	}
	return nil
}
