// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command probescript is a thin multi-command driver: run a script, dump its
// token stream, disassemble its compiled bytecode, or print the version.
package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probescript/probescript/internal/compiler"
	"github.com/probescript/probescript/internal/config"
	"github.com/probescript/probescript/internal/hostapi"
	"github.com/probescript/probescript/internal/lexer"
)

const version = "0.1.0"

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file (min_heap_size, initial_heap_size, growth_factor, verbose)",
}

func main() {
	app := cli.NewApp()
	app.Name = "probescript"
	app.Usage = "the ProbeScript language runtime"
	app.Version = version
	app.Commands = []cli.Command{
		runCommand,
		tokensCommand,
		disasmCommand,
		versionCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "compile and execute a script",
	ArgsUsage: "<file>",
	Flags:     []cli.Flag{configFileFlag},
	Action:    runAction,
}

func runAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.NewExitError("usage: probescript run [--config file] <file>", 1)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	h := hostapi.New(cfg, nil)
	_, diags, err := h.Exec(moduleNameFor(path), path, source)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

var tokensCommand = cli.Command{
	Name:      "tokens",
	Usage:     "dump the lexer's token stream for a script",
	ArgsUsage: "<file>",
	Action:    tokensAction,
}

func tokensAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.NewExitError("usage: probescript tokens <file>", 1)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	l := lexer.New(path, string(source))
	for _, tok := range l.Tokenize() {
		fmt.Printf("%s\t%s\t%q\n", tok.Pos, tok.Type, tok.Literal)
	}
	return nil
}

var disasmCommand = cli.Command{
	Name:      "disasm",
	Usage:     "compile a script and print a disassembly of its module initializer",
	ArgsUsage: "<file>",
	Action:    disasmAction,
}

func disasmAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.NewExitError("usage: probescript disasm <file>", 1)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	cfg := config.Default()
	h := hostapi.New(cfg, nil)
	mod, diags, cerr := h.Exec(moduleNameFor(path), path, source)
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if mod == nil || mod.Init == nil {
		if cerr != nil {
			return cli.NewExitError(cerr.Error(), 1)
		}
		return cli.NewExitError("module failed to compile", 1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"idx", "line", "op", "operands"})
	fn := mod.Init
	for i, instr := range fn.Code {
		line := 0
		if i < len(fn.Lines) {
			line = int(fn.Lines[i])
		}
		op, _, _, _ := compiler.Decode(instr)
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", line),
			op.String(),
			operandsFor(op, instr),
		})
	}
	table.Render()
	return nil
}

// operandsFor renders an instruction's operands in whichever of the three
// forms (ABC, ABx, AsBx) op actually encodes, matching internal/vm's step()
// decode choice per opcode exactly.
func operandsFor(op compiler.Opcode, instr uint32) string {
	switch op {
	case compiler.OpLoadBasic, compiler.OpStoreMove, compiler.OpNewClz, compiler.OpNot, compiler.OpReturn:
		_, a, bx := compiler.DecodeBx(instr)
		return fmt.Sprintf("A=%d Bx=%d", a, bx)
	case compiler.OpJump, compiler.OpJumpIf, compiler.OpJumpIfNot:
		_, a, sbx := compiler.DecodeSBx(instr)
		return fmt.Sprintf("A=%d sBx=%+d", a, sbx)
	default:
		_, a, b, c := compiler.Decode(instr)
		return fmt.Sprintf("A=%d B=%d C=%d", a, b, c)
	}
}

var versionCommand = cli.Command{
	Name:   "version",
	Usage:  "print the version and exit",
	Action: func(ctx *cli.Context) error { fmt.Println("probescript", version); return nil },
}

// moduleNameFor derives a module name from a script's file path — the base
// name without its extension, matching what an import of this file by
// another script would be named.
func moduleNameFor(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' || base[i] == '\\' {
			base = base[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
