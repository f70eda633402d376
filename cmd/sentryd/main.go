// Command sentryd runs the guardrail engine as an HTTP sidecar: a fiber
// app exposing scan, admin, and stats routes over JSON.
package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v3"

	"github.com/TryMightyAI/sentry/internal/config"
	"github.com/TryMightyAI/sentry/internal/sentrytype"
	sentryengine "github.com/TryMightyAI/sentry"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	cfg := config.NewDefaultConfig()
	engine, err := sentryengine.New(cfg)
	if err != nil {
		log.Fatalf("sentryd: failed to initialize engine: %v", err)
	}
	defer engine.Close()

	app := fiber.New(fiber.Config{AppName: "Sentry"})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": version})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		return c.JSON(engine.GetStats())
	})

	app.Post("/scan", func(c fiber.Ctx) error {
		var req struct {
			Text     string            `json:"text"`
			Source   string            `json:"source"`
			SenderID string            `json:"sender_id"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}

		msg := sentrytype.Message{
			Text: req.Text,
			Ctx: sentrytype.ScanContext{
				Source:   sentrytype.NormalizeSource(req.Source),
				SenderID: req.SenderID,
				Metadata: req.Metadata,
			},
		}
		result, alertText, err := engine.ScanWithAlert(c.Context(), msg)
		resp := fiber.Map{
			"decision": result.Decision,
			"alert":    alertText,
		}
		if err != nil {
			resp["warning"] = err.Error()
		}
		return c.JSON(resp)
	})

	app.Post("/admin/trust", func(c fiber.Ctx) error {
		var req struct {
			SenderID string `json:"sender_id"`
		}
		if err := c.Bind().Body(&req); err != nil || req.SenderID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "sender_id is required"})
		}
		engine.TrustSender(req.SenderID)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/admin/block", func(c fiber.Ctx) error {
		var req struct {
			SenderID string `json:"sender_id"`
		}
		if err := c.Bind().Body(&req); err != nil || req.SenderID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "sender_id is required"})
		}
		engine.BlockSender(req.SenderID)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/admin/configure", func(c fiber.Ctx) error {
		var req struct {
			StrictMode      *bool                   `json:"strict_mode"`
			SemanticEnabled *bool                   `json:"semantic_enabled"`
			Thresholds      *sentrytype.Thresholds  `json:"thresholds"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		engine.Configure(sentryengine.ConfigureOptions{
			StrictMode:      req.StrictMode,
			SemanticEnabled: req.SemanticEnabled,
			Thresholds:      req.Thresholds,
		})
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Printf("Sentry guardrail engine starting on :%s", port)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health           - Health check")
	log.Printf("  GET  /stats            - Engine statistics")
	log.Printf("  POST /scan             - Scan a message")
	log.Printf("  POST /admin/trust      - Trust a sender")
	log.Printf("  POST /admin/block      - Block a sender")
	log.Printf("  POST /admin/configure  - Runtime reconfiguration")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
