package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnodias/openclaw-mission-control/internal/board"
	"github.com/bnodias/openclaw-mission-control/internal/comments"
	"github.com/bnodias/openclaw-mission-control/internal/config"
	"github.com/bnodias/openclaw-mission-control/internal/directory"
	"github.com/bnodias/openclaw-mission-control/internal/domain"
	"github.com/bnodias/openclaw-mission-control/internal/gateway"
	"github.com/bnodias/openclaw-mission-control/internal/localstate"
	"github.com/bnodias/openclaw-mission-control/internal/logging"
	"github.com/bnodias/openclaw-mission-control/internal/orchestrator"
	"github.com/bnodias/openclaw-mission-control/internal/store"
	"github.com/bnodias/openclaw-mission-control/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "mcc",
	Short: "Mission Control client",
	Long: `mcc is a terminal client for the Mission Control dashboard API.
It manages boards of tasks assigned to human employees or automated agents,
and the underlying directory of people, departments, and teams. Creating an
agent automatically provisions it so it can receive task assignments.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("MISSIONCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "directory holding missionctl.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("board", "", "board id (overrides config default)")
	rootCmd.PersistentFlags().String("actor-id", "", "actor employee id (overrides cached identity)")
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("board", rootCmd.PersistentFlags().Lookup("board"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(commentsCmd())
	rootCmd.AddCommand(peopleCmd())
	rootCmd.AddCommand(departmentsCmd())
	rootCmd.AddCommand(teamsCmd())
	rootCmd.AddCommand(uiCmd())
}

// app bundles the wired client core for one command invocation.
type app struct {
	Config *config.Config
	State  *localstate.Store
	Log    *logging.Logger
	GW     *gateway.Client
	Stores *store.Stores
	Orch   *orchestrator.Orchestrator
}

func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	dir := viper.GetString("dir")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	stateDir := cfg.StateDir(dir)
	state, err := localstate.Open(stateDir)
	if err != nil {
		return err
	}
	defer state.Close()
	log, err := logging.New(stateDir)
	if err != nil {
		return err
	}
	defer log.Close()

	actorID := viper.GetString("actor-id")
	if actorID == "" {
		actorID = gateway.ResolveActor(state, cfg.Actor.EmployeeID)
	}
	gw := gateway.New(cfg.API.BaseURL, actorID, cfg.Token())
	stores := store.NewStores(gw, state)
	return fn(ctx, &app{
		Config: cfg,
		State:  state,
		Log:    log,
		GW:     gw,
		Stores: stores,
		Orch:   orchestrator.New(gw, stores, log),
	})
}

func resolveBoard(cfg *config.Config, args []string) (domain.ID, error) {
	if len(args) > 0 && args[0] != "" {
		return domain.ID(args[0]), nil
	}
	if b := viper.GetString("board"); b != "" {
		return domain.ID(b), nil
	}
	if cfg.Board.Default != "" {
		return domain.ID(cfg.Board.Default), nil
	}
	return "", fmt.Errorf("board not specified; use --board or set board.default")
}

func initCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default missionctl.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("dir"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(baseURL)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "api-url", "http://localhost:8000/api/v1", "Mission Control API base URL")
	return cmd
}

func boardCmd() *cobra.Command {
	b := &cobra.Command{Use: "board", Short: "Inspect a board"}
	b.AddCommand(boardShowCmd())
	return b
}

func boardShowCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "show [board-id]",
		Short: "Show the board's workflow columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				boardID, err := resolveBoard(a.Config, args)
				if err != nil {
					return err
				}
				if offline {
					return showBoardOffline(a, boardID)
				}
				view, err := board.LoadView(ctx, a.GW, boardID)
				if err != nil {
					return err
				}
				model := board.Project(view.Tasks, view.Agents, boardID)
				return printBoard(view.Board.Name, model)
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "render the last fetched snapshot without contacting the server")
	return cmd
}

// showBoardOffline projects the last snapshots saved by the TUI or a prior
// board tasks fetch. Stale by definition; labeled as such.
func showBoardOffline(a *app, boardID domain.ID) error {
	payload, takenAt, err := a.State.Snapshot(store.TaskSnapshot(boardID))
	if err != nil {
		return fmt.Errorf("no offline snapshot for board %s", boardID)
	}
	var tasks []domain.Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return fmt.Errorf("offline snapshot unreadable: %w", err)
	}
	var agents []domain.Agent
	if payload, _, err := a.State.Snapshot(store.SnapAgents); err == nil {
		_ = json.Unmarshal(payload, &agents)
	}
	fmt.Printf("offline snapshot from %s\n", takenAt.Format("2006-01-02 15:04"))
	return printBoard("", board.Project(tasks, agents, boardID))
}

func printBoard(name string, model board.Model) error {
	if viper.GetBool("json") {
		return printJSON(model)
	}
	if name != "" {
		fmt.Println(name)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Column", "ID", "Title", "Assignee", "Priority", "Due"})
	for _, col := range model.Columns {
		for _, card := range col.Cards {
			tw.AppendRow(table.Row{col.Title, card.Task.ID, card.Task.Title, card.Assignee, card.Task.Priority, card.Due})
		}
	}
	tw.Render()
	return nil
}

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage tasks"}
	t.AddCommand(taskCreateCmd())
	return t
}

func taskCreateCmd() *cobra.Command {
	var title, description, priority string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in the board's inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				boardID, err := resolveBoard(a.Config, nil)
				if err != nil {
					return err
				}
				tasks := a.Stores.TaskStore(boardID)
				created, err := a.Orch.CreateTask(ctx, boardID, tasks, orchestrator.TaskForm{
					Title:       title,
					Description: description,
					Priority:    domain.Priority(priority),
				})
				var vErr *orchestrator.ValidationError
				if errors.As(err, &vErr) {
					return fmt.Errorf("invalid input: %s", vErr)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low, medium, or high")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <task-id>",
		Short: "Show a task's comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				boardID, err := resolveBoard(a.Config, nil)
				if err != nil {
					return err
				}
				loader := comments.NewLoader(a.GW)
				thread, err := loader.Open(ctx, boardID, domain.ID(args[0]))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(thread)
				}
				agents, _ := a.Stores.Agents.Refetch(ctx)
				index := board.AssigneeIndex(agents, boardID)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Author", "At", "Message"})
				for _, c := range thread {
					tw.AppendRow(table.Row{
						board.CommentAuthor(index, c.AgentID),
						board.FormatTimestamp(c.CreatedAt),
						c.Message,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func peopleCmd() *cobra.Command {
	p := &cobra.Command{Use: "people", Short: "Manage the employee and agent directory"}
	p.AddCommand(peopleListCmd())
	p.AddCommand(peopleCreateCmd())
	p.AddCommand(peopleProvisionCmd())
	p.AddCommand(peopleDeprovisionCmd())
	return p
}

func peopleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees and agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				employees, err := a.Stores.Employees.Refetch(ctx)
				if err != nil {
					return err
				}
				// Lookup collections are label-only; a failed fetch just
				// degrades labels to placeholders.
				departments, _ := a.Stores.Departments.Refetch(ctx)
				teams, _ := a.Stores.Teams.Refetch(ctx)
				if viper.GetBool("json") {
					return printJSON(employees)
				}
				labels := directory.BuildLabels(departments, teams, employees)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Type", "Title", "Department", "Team", "Manager", "Assignable"})
				for _, e := range employees {
					tw.AppendRow(table.Row{
						e.ID, e.Name, e.EmployeeType, e.Title,
						labels.Department(e.DepartmentID),
						labels.Team(e.TeamID),
						labels.Manager(e.ManagerID),
						e.Assignable(),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func peopleCreateCmd() *cobra.Command {
	var form orchestrator.EmployeeForm
	var employeeType string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee (human) or agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				form.EmployeeType = domain.EmployeeType(employeeType)
				result, err := a.Orch.CreateEmployee(ctx, form)
				var vErr *orchestrator.ValidationError
				if errors.As(err, &vErr) {
					return fmt.Errorf("invalid input: %s", vErr)
				}
				if err != nil {
					return err
				}
				if result.Provisioning == orchestrator.ProvisionFailed {
					// Creation still succeeded; the directory shows the
					// unprovisioned state until a manual provision.
					fmt.Printf("created, but provisioning failed: %v\n", result.ProvisionErr)
					fmt.Printf("retry with: mcc people provision %s\n", result.Employee.ID)
				}
				return printJSONOrTable(result.Employee)
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "person name")
	cmd.Flags().StringVar(&employeeType, "type", "human", "human or agent")
	cmd.Flags().StringVar(&form.Title, "title", "", "job title")
	cmd.Flags().StringVar(&form.DepartmentID, "department", "", "department id")
	cmd.Flags().StringVar(&form.TeamID, "team", "", "team id")
	cmd.Flags().StringVar(&form.ManagerID, "manager", "", "manager employee id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func peopleProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision <employee-id>",
		Short: "Issue an agent's provisioning key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				updated, err := a.Orch.Provision(ctx, domain.ID(args[0]))
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
}

func peopleDeprovisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deprovision <employee-id>",
		Short: "Revoke an agent's provisioning key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				updated, err := a.Orch.Deprovision(ctx, domain.ID(args[0]))
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
}

func departmentsCmd() *cobra.Command {
	d := &cobra.Command{Use: "departments", Short: "Department lookup"}
	d.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				departments, err := a.Stores.Departments.Refetch(ctx)
				if err != nil {
					return err
				}
				return printNamedList(departments, func(d domain.Department) (domain.ID, string) { return d.ID, d.Name })
			})
		},
	})
	return d
}

func teamsCmd() *cobra.Command {
	var departmentID string
	t := &cobra.Command{Use: "teams", Short: "Team lookup"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List teams, optionally scoped to a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				var scope *domain.ID
				if departmentID != "" {
					id := domain.ID(departmentID)
					scope = &id
				}
				teams, err := a.GW.ListTeams(ctx, scope)
				if err != nil {
					return err
				}
				return printNamedList(teams, func(t domain.Team) (domain.ID, string) { return t.ID, t.Name })
			})
		},
	}
	list.Flags().StringVar(&departmentID, "department", "", "department id filter")
	t.AddCommand(list)
	return t
}

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [board-id]",
		Short: "Open the interactive board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				boardID, err := resolveBoard(a.Config, args)
				if err != nil {
					return err
				}
				model := tui.New(a.GW, a.Stores, a.Orch, boardID)
				_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
				return err
			})
		},
	}
}

func printNamedList[T any](items []T, fields func(T) (domain.ID, string)) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name"})
	for _, item := range items {
		id, name := fields(item)
		tw.AppendRow(table.Row{id, name})
	}
	tw.Render()
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
