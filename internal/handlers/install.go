package handlers

import (
	"fmt"
	"net/http"
)

const skillVersion = "1.0.0"

// InstallScript serves the one-line CLI installer.
func (h *Handler) InstallScript(w http.ResponseWriter, r *http.Request) {
	script := fmt.Sprintf(`#!/bin/bash
mkdir -p ~/.claude/skills/cast
curl -fsSL %s/skill.md -o ~/.claude/skills/cast/SKILL.md
echo ""
echo "✓ Clawding installed!"
echo ""
echo "  Type /cast now to claim your username and start broadcasting."
echo ""
`, h.cfg.SiteURL)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300, s-maxage=300")
	w.Write([]byte(script))
}

// SkillManifest lets installed CLIs check for skill updates.
func (h *Handler) SkillManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   skillVersion,
		"skill_url": h.cfg.SiteURL + "/skill.md",
	})
}
