package cli

import (
	"errors"

	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/QuorumGo/config"
)

// runInteractiveMode drives the prompt loop used when no subcommand is given.
func runInteractiveMode(cfg *config.Config) error {
	DisplayWelcomeBanner()

	for {
		mode, err := PromptForMode()
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		switch mode {
		case modeExit:
			DisplayInfo("Goodbye.")
			return nil

		case modeAnalyze:
			symbol, err := PromptForSymbol()
			if err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				return err
			}
			tier, err := PromptForTier()
			if err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				return err
			}
			if err := runAnalyzeCommand(cfg, symbol, "", "", tier, 0); err != nil {
				DisplayError(err)
			}

		case modeDebate:
			symbol, err := PromptForSymbol()
			if err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				return err
			}
			rounds, err := PromptForRounds(cfg.MaxDebateRounds)
			if err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					continue
				}
				return err
			}
			if err := runDebateCommand(cfg, symbol, "", "", "", rounds); err != nil {
				DisplayError(err)
			}
		}

		again, err := PromptForAnotherRun()
		if err != nil || !again {
			DisplayInfo("Goodbye.")
			return nil
		}
	}
}
