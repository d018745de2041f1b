package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bismut-lsp/src/demangle"
	"bismut-lsp/src/internal/common"
	versionpkg "bismut-lsp/src/internal/version"
)

// CLI Constants
const (
	CmdServer   = "server"
	CmdCheck    = "check"
	CmdAnalyze  = "analyze"
	CmdDemangle = "demangle"
	CmdVersion  = "version"
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagJSON    = "json"
)

// CLI Variables
var (
	configPath string
	verbose    bool
	formatJSON bool
)

// Root command
var rootCmd = &cobra.Command{
	Use:   "bismut-lsp",
	Short: "Bismut LSP - language server for the Bismut programming language",
	Long: `Bismut LSP provides editor integration for the Bismut programming language
by wrapping the bismutc compiler's analyze mode behind a Language Server
Protocol interface.

QUICK START:
  bismut-lsp server                        # Start the language server (stdio)
  bismut-lsp check                         # Verify the compiler is reachable

CORE FEATURES:
  - Diagnostics on open, save and (debounced) on type
  - Hover, go-to-definition, references, completion, document outline
  - Whole-file symbol snapshots from bismutc analyze, no partial state
  - Out-of-editor file change detection for workspace files

AVAILABLE COMMANDS:
  bismut-lsp server                        # Serve LSP over stdin/stdout
  bismut-lsp check                         # Verify compiler binary and config
  bismut-lsp analyze <file>                # One-shot analysis of a source file
  bismut-lsp demangle <name>...            # Demangle compiler runtime names
  bismut-lsp version                       # Show version information

CONFIGURATION:
The server reads a YAML config (compiler_path, compiler_dir,
analyze_on_save, analyze_on_type, analyze_debounce_ms). Pass --config or
rely on the defaults.

Use 'bismut-lsp <command> --help' for detailed command information.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command definitions
var (
	serverCmd = &cobra.Command{
		Use:   CmdServer,
		Short: "Start the Bismut language server",
		Long: `Start the language server on stdin/stdout.

The server speaks LSP over Content-Length framed JSON-RPC and is meant to
be spawned by an editor, not run interactively. Diagnostics and symbols
come from 'bismutc analyze' runs scheduled per file.`,
		RunE: runServerCmd,
	}

	checkCmd = &cobra.Command{
		Use:   CmdCheck,
		Short: "Verify the compiler setup",
		Long: `Verify that the configured bismutc binary can be invoked and that the
configuration file is valid.

Examples:
  bismut-lsp check
  bismut-lsp check --config custom.yaml`,
		RunE: runCheckCmd,
	}

	analyzeCmd = &cobra.Command{
		Use:   CmdAnalyze + " <file>",
		Short: "Analyze a single Bismut source file",
		Long: `Run one analysis pass over a source file and print its diagnostics
and symbols.

Useful for debugging the compiler integration without an editor attached.

Examples:
  bismut-lsp analyze main.bi
  bismut-lsp analyze main.bi --json`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	demangleCmd = &cobra.Command{
		Use:   CmdDemangle + " <name>...",
		Short: "Demangle compiler-generated runtime names",
		Long: `Translate mangled bismutc names back to the Bismut type and variable
names a debugger should display.

Examples:
  bismut-lsp demangle __lang_rt_List_I64
  bismut-lsp demangle __lang_rt_Dict_STR_I64 __lang_total_2`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDemangleCmd,
	}

	versionCmd = &cobra.Command{
		Use:   CmdVersion,
		Short: "Show version information",
		Long: `Display version information for Bismut LSP.

By default, shows only the version number. Use --verbose for detailed build
information including commit hash, build date, and Go version.

Examples:
  bismut-lsp version              # Show version number
  bismut-lsp version --verbose    # Show detailed build information`,
		RunE: runVersionCmd,
	}
)

func init() {
	serverCmd.Flags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (optional, will use defaults if not provided)")

	checkCmd.Flags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (optional)")

	analyzeCmd.Flags().StringVarP(&configPath, FlagConfig, "c", "", "Configuration file path (optional)")
	analyzeCmd.Flags().BoolVar(&formatJSON, FlagJSON, false, "Output raw analysis result as JSON")

	versionCmd.Flags().BoolVarP(&verbose, FlagVerbose, "v", false, "Show detailed version information")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(demangleCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServerCmd(cmd *cobra.Command, args []string) error {
	return RunServer(configPath)
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	return CheckSetup(configPath)
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	return AnalyzeFile(configPath, args[0], formatJSON)
}

func runDemangleCmd(cmd *cobra.Command, args []string) error {
	for _, name := range args {
		fmt.Println(demangleName(name))
	}
	return nil
}

// demangleName tries runtime type names first, then mangled locals; names
// that match neither pass through unchanged.
func demangleName(name string) string {
	if pretty := demangle.TypeName(name); pretty != name {
		return pretty
	}
	if plain, ok := demangle.VariableName(name); ok {
		return plain
	}
	return name
}

func runVersionCmd(cmd *cobra.Command, args []string) error {
	if verbose {
		common.CLILogger.Info("%s", versionpkg.GetFullVersionInfo())
		return nil
	}
	common.CLILogger.Info("bismut-lsp %s", versionpkg.GetVersion())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
