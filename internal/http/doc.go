// Package http provides the HTTP transport of the status board service.
//
// The router exposes the following endpoints:
//   - GET /health: liveness probe answering {"status":"ok"}.
//   - POST /api/bot/message: ingests one chat notification forwarded by the
//     device-side bot. Body: {"room","sender","message","receivedAt"}. The
//     response is the ingestion outcome with "success": true; redelivery of a
//     processed message answers with type "duplicate".
//   - POST /api/bot/room: registers the rooms mentioned in a message without
//     touching sessions. "sender" is optional.
//   - POST /api/bot/designated: applies the designated section of a message.
//   - GET /api/status-board/{slotID}: records of the slot for the current
//     event day with the ticket footer summary.
//
// Errors are answered as {"error_code","message","errors"} where errors maps
// request fields to localized messages.
package http
