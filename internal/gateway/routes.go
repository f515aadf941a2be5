package gateway

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /webhook/whatsapp", s.handleWebhookGeneric)
	mux.HandleFunc("GET /webhook/whatsapp/verify", s.handleWebhookVerify)
	mux.HandleFunc("POST /webhook/whatsapp/messages/text", s.handleWebhookText)
	mux.HandleFunc("POST /webhook/whatsapp/presence", s.handleWebhookAck)
	mux.HandleFunc("POST /webhook/whatsapp/chats", s.handleWebhookAck)
	mux.HandleFunc("POST /webhook/whatsapp/history", s.handleWebhookAck)

	mux.HandleFunc("GET /admin/stats", s.handleStats)
	mux.HandleFunc("GET /admin/events", s.handleEvents)
	mux.HandleFunc("POST /test/whatsapp", s.handleTestWhatsApp)

	// Catch-all JSON 404 instead of the mux's plain-text one.
	mux.HandleFunc("/", handleNotFound)
}
