// Package app contains the core application logic. It loads and builds a
// fragment model once, then serves the operations the CLI exposes:
// traversal, impact assessment, inventory, tree display, record export and
// scenario listing. It is decoupled from any specific entrypoint.
package app
