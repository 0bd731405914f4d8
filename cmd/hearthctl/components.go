package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hearthstay/server/pkg/client"
	"github.com/hearthstay/server/pkg/output"
	"github.com/spf13/cobra"
)

var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"component", "c"},
	Short:   "List, inspect and edit UI components",
}

var (
	listCategory string
	listType     string
	listActive   string
	listPublic   string
)

var componentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List components",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := client.ListFilter{Category: listCategory, ComponentType: listType}
		var err error
		if filter.IsActive, err = optionalBool("active", listActive); err != nil {
			return err
		}
		if filter.IsPublic, err = optionalBool("public", listPublic); err != nil {
			return err
		}

		list, err := api.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(list))
		for _, c := range list {
			rows = append(rows, []string{
				c.ID,
				c.Name,
				c.ComponentType,
				c.Category,
				yesNo(c.IsActive),
				yesNo(c.IsPublic),
				strconv.FormatInt(c.UsageCount, 10),
			})
		}
		return output.PrintList(list, []string{"ID", "NAME", "TYPE", "CATEGORY", "ACTIVE", "PUBLIC", "USES"}, rows)
	},
}

var componentsGetCmd = &cobra.Command{
	Use:   "get <name|id>",
	Short: "Show one component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		return printComponent(comp)
	},
}

var (
	createFile   string
	createType   string
	createConfig string
	createCat    string
	createTitle  string
	createActive bool
	createPublic bool
)

var componentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a component (admin)",
	Long: `Create a component from flags, or from a JSON body with --file.
--config takes the variant config as JSON, or @path to read it from a file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req client.CreateRequest
		if createFile != "" {
			if err := readJSONFile(createFile, &req); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			req.Name = args[0]
		}
		if cmd.Flags().Changed("type") {
			req.ComponentType = createType
		}
		if cmd.Flags().Changed("category") {
			req.Category = createCat
		}
		if cmd.Flags().Changed("display-name") {
			req.DisplayName = createTitle
		}
		if cmd.Flags().Changed("config") {
			raw, err := jsonArg(createConfig)
			if err != nil {
				return err
			}
			req.Config = raw
		}
		if cmd.Flags().Changed("active") {
			req.IsActive = &createActive
		}
		if cmd.Flags().Changed("public") {
			req.IsPublic = &createPublic
		}

		comp, err := api.Create(cmd.Context(), req)
		if client.IsConflict(err) {
			return fmt.Errorf("a component named %q already exists, use `components update`", req.Name)
		}
		if err != nil {
			return err
		}
		output.PrintSuccess("Created %s (%s)", comp.Name, comp.ID)
		return printComponent(comp)
	},
}

var (
	updateFile   string
	updateName   string
	updateType   string
	updateConfig string
	updateCat    string
	updateTitle  string
	updateActive bool
	updatePublic bool
)

var componentsUpdateCmd = &cobra.Command{
	Use:   "update <name|id>",
	Short: "Update a component (admin)",
	Long: `Apply a partial update. Only flags that are given are sent.
Changing --type requires a --config matching the new type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}

		var req client.UpdateRequest
		if updateFile != "" {
			if err := readJSONFile(updateFile, &req); err != nil {
				return err
			}
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			req.Name = &updateName
		}
		if flags.Changed("type") {
			req.ComponentType = &updateType
		}
		if flags.Changed("category") {
			req.Category = &updateCat
		}
		if flags.Changed("display-name") {
			req.DisplayName = &updateTitle
		}
		if flags.Changed("config") {
			raw, err := jsonArg(updateConfig)
			if err != nil {
				return err
			}
			req.Config = raw
		}
		if flags.Changed("active") {
			req.IsActive = &updateActive
		}
		if flags.Changed("public") {
			req.IsPublic = &updatePublic
		}

		comp, err := api.Update(cmd.Context(), current.ID, req)
		if err != nil {
			return err
		}
		output.PrintSuccess("Updated %s", comp.Name)
		return printComponent(comp)
	},
}

var deleteYes bool

var componentsDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a component (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		if !deleteYes {
			return fmt.Errorf("refusing to delete %s without --yes", comp.Name)
		}
		if err := api.Delete(cmd.Context(), comp.ID); err != nil {
			return err
		}
		output.PrintSuccess("Deleted %s", comp.Name)
		return nil
	},
}

var componentsAnalyticsCmd = &cobra.Command{
	Use:   "analytics <name|id>",
	Short: "Show usage analytics (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		a, err := api.Analytics(cmd.Context(), comp.ID)
		if err != nil {
			return err
		}

		fields := []output.Field{
			{Label: "Total usage", Value: a.TotalUsage},
			{Label: "Counter", Value: a.UsageCount},
			{Label: "Unique users", Value: a.UniqueUsers},
			{Label: "Last 7 days", Value: a.RecentUsage},
			{Label: "Avg load (ms)", Value: fmt.Sprintf("%.1f", a.AverageLoadTime)},
			{Label: "Avg render (ms)", Value: fmt.Sprintf("%.1f", a.AverageRenderTime)},
		}
		for _, d := range a.Daily {
			fields = append(fields, output.Field{Label: d.Date, Value: d.Count})
		}
		for i, p := range a.TopPages {
			fields = append(fields, output.Field{Label: fmt.Sprintf("Page #%d", i+1), Value: fmt.Sprintf("%s (%d)", p.Page, p.Count)})
		}
		return output.PrintRecord(a.Name, a, fields)
	},
}

var componentsRecountCmd = &cobra.Command{
	Use:   "recount <name|id>",
	Short: "Reset the usage counter from the usage log (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := lookup(cmd, args[0])
		if err != nil {
			return err
		}
		updated, err := api.Recount(cmd.Context(), comp.ID)
		if err != nil {
			return err
		}
		output.PrintSuccess("%s usage count: %d (was %d)", updated.Name, updated.UsageCount, comp.UsageCount)
		return nil
	},
}

var (
	renderData  string
	renderPage  string
	renderTrack bool
	renderByID  bool
)

var componentsRenderCmd = &cobra.Command{
	Use:   "render <name|id>",
	Short: "Render a component on the server and print the HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.RenderRequest{Page: renderPage, TrackUsage: renderTrack}
		if renderByID {
			req.ID = args[0]
		} else {
			req.Name = args[0]
		}
		if renderData != "" {
			raw, err := jsonArg(renderData)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &req.Data); err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
		}

		res, err := api.Render(cmd.Context(), req)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.Print("", res)
		}
		if res.State != "rendered" {
			output.PrintWarning("state %s", res.State)
		}
		fmt.Println(res.HTML)
		return nil
	},
}

func init() {
	componentsListCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	componentsListCmd.Flags().StringVar(&listType, "type", "", "filter by component type")
	componentsListCmd.Flags().StringVar(&listActive, "active", "", "filter by active flag (true|false)")
	componentsListCmd.Flags().StringVar(&listPublic, "public", "", "filter by public flag (true|false)")

	componentsCreateCmd.Flags().StringVarP(&createFile, "file", "f", "", "JSON request body")
	componentsCreateCmd.Flags().StringVarP(&createType, "type", "t", "", "component type (react, html, card, banner, form, list, custom)")
	componentsCreateCmd.Flags().StringVar(&createConfig, "config", "", "variant config as JSON or @file")
	componentsCreateCmd.Flags().StringVar(&createCat, "category", "", "category")
	componentsCreateCmd.Flags().StringVar(&createTitle, "display-name", "", "display name")
	componentsCreateCmd.Flags().BoolVar(&createActive, "active", true, "active")
	componentsCreateCmd.Flags().BoolVar(&createPublic, "public", true, "public")

	componentsUpdateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "JSON request body")
	componentsUpdateCmd.Flags().StringVar(&updateName, "name", "", "new name")
	componentsUpdateCmd.Flags().StringVarP(&updateType, "type", "t", "", "new component type")
	componentsUpdateCmd.Flags().StringVar(&updateConfig, "config", "", "variant config as JSON or @file")
	componentsUpdateCmd.Flags().StringVar(&updateCat, "category", "", "category")
	componentsUpdateCmd.Flags().StringVar(&updateTitle, "display-name", "", "display name")
	componentsUpdateCmd.Flags().BoolVar(&updateActive, "active", true, "active")
	componentsUpdateCmd.Flags().BoolVar(&updatePublic, "public", true, "public")

	componentsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "confirm deletion")

	componentsRenderCmd.Flags().StringVarP(&renderData, "data", "d", "", "interpolation data as JSON or @file")
	componentsRenderCmd.Flags().StringVar(&renderPage, "page", "/hearthctl", "page recorded with the usage event")
	componentsRenderCmd.Flags().BoolVar(&renderTrack, "track", false, "record a usage event")
	componentsRenderCmd.Flags().BoolVar(&renderByID, "id", false, "treat the argument as an id")

	componentsCmd.AddCommand(
		componentsListCmd,
		componentsGetCmd,
		componentsCreateCmd,
		componentsUpdateCmd,
		componentsDeleteCmd,
		componentsAnalyticsCmd,
		componentsRecountCmd,
		componentsRenderCmd,
	)
}

// lookup resolves an argument by name, falling back to id
func lookup(cmd *cobra.Command, arg string) (*client.Component, error) {
	comp, err := api.Component(cmd.Context(), client.Ref{Name: arg})
	if client.IsNotFound(err) {
		return api.Component(cmd.Context(), client.Ref{ID: arg})
	}
	return comp, err
}

func printComponent(c *client.Component) error {
	fields := []output.Field{
		{Label: "ID", Value: c.ID},
		{Label: "Name", Value: c.Name},
		{Label: "Display name", Value: c.DisplayName},
		{Label: "Type", Value: c.ComponentType},
		{Label: "Category", Value: c.Category},
		{Label: "Active", Value: yesNo(c.IsActive)},
		{Label: "Public", Value: yesNo(c.IsPublic)},
		{Label: "Usage", Value: c.UsageCount},
		{Label: "Config", Value: string(c.Config)},
		{Label: "Updated", Value: c.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	return output.PrintRecord(c.String(), c, fields)
}

func optionalBool(flag, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("--%s must be true or false", flag)
	}
	return &b, nil
}

// jsonArg reads inline JSON or, with a leading @, a JSON file
func jsonArg(v string) (json.RawMessage, error) {
	raw := []byte(v)
	if strings.HasPrefix(v, "@") {
		b, err := os.ReadFile(v[1:])
		if err != nil {
			return nil, err
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON: %.40s", v)
	}
	return raw, nil
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
