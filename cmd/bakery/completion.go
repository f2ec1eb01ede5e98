package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string // --workers
	Short    string // -w (empty if none)
	Desc     string // help text
	TakesArg bool   // false for bool flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name     string
	Desc     string
	Flags    []flagDef
	TakesDir bool // accepts a directory argument
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		flags = append(flags, flagDef{
			Long:     f.Name,
			Short:    f.Shorthand,
			Desc:     f.Usage,
			TakesArg: f.Value.Type() != "bool",
		})
	})
	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "build", Desc: "Build a site", Flags: extractFlagsFromFlagSet(newBuildFlagSet("build", &buildFlags{})), TakesDir: true},
		{Name: "watch", Desc: "Build and rebuild on change", Flags: extractFlagsFromFlagSet(newBuildFlagSet("watch", &buildFlags{})), TakesDir: true},
		{Name: "init", Desc: "Create a starter site", Flags: extractFlagsFromFlagSet(newInitFlagSet(&initFlags{})), TakesDir: true},
		{Name: "doctor", Desc: "Check build requirements", Flags: []flagDef{{Long: "json", Desc: "print results as JSON"}}, TakesDir: true},
		{Name: "completion", Desc: "Generate shell completion script"},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w, getCommands())
	case ShellZsh:
		return generateZsh(w, getCommands())
	case ShellFish:
		return generateFish(w, getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# bash completion for bakery\n")
	b.WriteString("_bakery() {\n")
	b.WriteString("    local cur cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(cmds))
	b.WriteString("        return\n")
	b.WriteString("    fi\n")
	b.WriteString("    case \"$cmd\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		switch {
		case c.Name == "help":
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(cmds))
		case c.Name == "completion":
			b.WriteString("            COMPREPLY=($(compgen -W \"bash zsh fish\" -- \"$cur\"))\n")
		default:
			b.WriteString("            if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", flagWords(c.Flags))
			if c.TakesDir {
				b.WriteString("            else\n")
				b.WriteString("                COMPREPLY=($(compgen -d -- \"$cur\"))\n")
			}
			b.WriteString("            fi\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _bakery bakery\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func zshEscape(s string) string {
	return strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:").Replace(s)
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("#compdef bakery\n\n")
	b.WriteString("_bakery() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n")
	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 && !c.TakesDir {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments \\\n")
		for _, f := range c.Flags {
			opt := fmt.Sprintf("--%s[%s]", f.Long, zshEscape(f.Desc))
			if f.TakesArg {
				opt += ":value:"
			}
			if f.Short != "" {
				opt = fmt.Sprintf("(-%s --%s)'{-%s,--%s}'[%s]", f.Short, f.Long, f.Short, f.Long, zshEscape(f.Desc))
				if f.TakesArg {
					opt += ":value:"
				}
			}
			fmt.Fprintf(&b, "                '%s' \\\n", opt)
		}
		b.WriteString("                '*:directory:_files -/'\n")
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _bakery bakery\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# fish completion for bakery\n")
	b.WriteString("complete -c bakery -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c bakery -n __fish_use_subcommand -a %s -d %q\n", c.Name, c.Desc)
	}
	for _, c := range cmds {
		cond := "__fish_seen_subcommand_from " + c.Name
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c bakery -n %q -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			if f.TakesArg {
				line += " -r"
			}
			line += fmt.Sprintf(" -d %q\n", f.Desc)
			b.WriteString(line)
		}
		if c.TakesDir {
			fmt.Fprintf(&b, "complete -c bakery -n %q -a '(__fish_complete_directories)'\n", cond)
		}
	}
	fmt.Fprintf(&b, "complete -c bakery -n %q -a 'bash zsh fish'\n", "__fish_seen_subcommand_from completion")
	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bakery completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(bakery completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(bakery completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    bakery completion fish > ~/.config/fish/completions/bakery.fish")
}
