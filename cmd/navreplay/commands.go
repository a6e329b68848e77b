package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resultsdash/adapters/datasource"
	"resultsdash/adapters/render"
	"resultsdash/domain/tabs"
	"resultsdash/internal"
	"resultsdash/internal/navigation"
	"resultsdash/ports"
)

type options struct {
	tabsFile string
	apiURL   string
	fixtures string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "navreplay",
		Short:         "Replay dashboard navigation against a results API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.tabsFile, "tabs", "", "YAML tab configuration (default: built-in tree)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN", "ERROR, WARN, INFO, DEBUG or TRACE")

	rootCmd.AddCommand(
		newReplayCmd(opts),
		newRoutesCmd(opts),
		newTabsCmd(opts),
	)
	return rootCmd
}

func newReplayCmd(opts *options) *cobra.Command {
	var showChrome bool

	cmd := &cobra.Command{
		Use:   "replay [steps...]",
		Short: "Apply navigation steps and print map commands, history pushes and the resulting state",
		Long: `Each step is one of:
  #fragment[?query]   navigate to a URL, as the browser would
  click:<name>        a map click on the named constituency
  subtab:<link>       a party trends sub-tab click
  clear               the clear filter action

Example: navreplay replay --fixtures ./testdata '#party-trends?filter=leading-party-by-issue' 'click:Bristol West'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}

			data, stop, err := opts.dataSource()
			if err != nil {
				return err
			}
			defer stop()

			out := cmd.OutOrStdout()
			ctrl, err := opts.controller(out, data)
			if err != nil {
				return err
			}

			for _, s := range steps {
				fmt.Fprintf(out, "> %s\n", s)
				s.apply(ctrl)
				snap := ctrl.Snapshot()
				fmt.Fprintf(out, "  url: %s\n", snap.URL)
				fmt.Fprintf(out, "  path: %s\n", strings.Join(snap.Path, " / "))
				if snap.Filter != "" {
					fmt.Fprintf(out, "  filter: %s\n", snap.Filter)
				}
				fmt.Fprintf(out, "  visible: %s\n", snap.Visible)
				if showChrome {
					fmt.Fprintf(out, "  chrome: %s\n", snap.Chrome)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.apiURL, "api", "http://localhost:9000/api", "results API base URL")
	cmd.Flags().StringVar(&opts.fixtures, "fixtures", "", "serve the results API from this directory instead of --api")
	cmd.Flags().BoolVar(&showChrome, "chrome", false, "print the rendered navigation after each step")
	return cmd
}

func newRoutesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route patterns in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opts.controller(io.Discard, emptySource{})
			if err != nil {
				return err
			}
			for i, p := range ctrl.Routes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", i+1, p)
			}
			return nil
		},
	}
}

func newTabsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tabs",
		Short: "Print the tab tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := opts.tree()
			if err != nil {
				return err
			}
			printNode(cmd.OutOrStdout(), tree.Root, 0)
			return nil
		},
	}
}

func printNode(w io.Writer, n *tabs.Node, depth int) {
	for _, c := range n.Children {
		fmt.Fprintf(w, "%s%s  [%s] %s\n", strings.Repeat("  ", depth), c.Link, c.Kind, c.Name)
		printNode(w, c, depth+1)
	}
}

func (o *options) logger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(o.logLevel))
}

func (o *options) tree() (*tabs.Tree, error) {
	cfg, err := tabs.LoadFrom(o.tabsFile)
	if err != nil {
		return nil, err
	}
	return tabs.Build(cfg)
}

// controller builds a controller that runs every load inline and prints its map commands and
// history pushes to w
func (o *options) controller(w io.Writer, data ports.DataSource) (*navigation.Controller, error) {
	tree, err := o.tree()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	return navigation.NewController(navigation.Deps{
		Tree:      tree,
		Map:       &printingMap{w: w},
		History:   &printingHistory{w: w},
		Renderer:  renderer,
		Data:      data,
		Scheduler: inline{},
		Logger:    o.logger(),
	})
}

// dataSource returns the results API client, serving the fixtures directory when one is set
func (o *options) dataSource() (ports.DataSource, func(), error) {
	base := o.apiURL
	stop := func() {}
	if o.fixtures != "" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to serve fixtures: %w", err)
		}
		srv := &http.Server{Handler: http.FileServer(http.Dir(o.fixtures)), ReadHeaderTimeout: 5 * time.Second}
		go srv.Serve(ln)
		base = "http://" + ln.Addr().String()
		stop = func() { srv.Shutdown(context.Background()) }
	}
	return datasource.NewClient(datasource.Config{BaseURL: base, Timeout: 10 * time.Second}, o.logger()), stop, nil
}

// inline runs blocking work and continuations immediately, so each step finishes before the next
type inline struct{}

func (inline) Go(task func()) { task() }
func (inline) Post(fn func()) { fn() }

type printingMap struct{ w io.Writer }

func (m *printingMap) Reset()        { fmt.Fprintln(m.w, "  map: reset") }
func (m *printingMap) ResetColours() { fmt.Fprintln(m.w, "  map: reset colours") }
func (m *printingMap) MapLeadingConstituencyResults() {
	fmt.Fprintln(m.w, "  map: leading party for each constituency")
}
func (m *printingMap) MapStrengthOfParty(slug string) {
	fmt.Fprintf(m.w, "  map: strength of %s\n", slug)
}
func (m *printingMap) SelectBySlug(slug string) { fmt.Fprintf(m.w, "  map: select %s\n", slug) }

type printingHistory struct{ w io.Writer }

func (h *printingHistory) PushState(url string) { fmt.Fprintf(h.w, "  history: push %s\n", url) }
