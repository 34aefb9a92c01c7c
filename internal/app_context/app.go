package appcontext

import (
	"github.com/SeakMengs/BasicPDF/internal/auth"
	"github.com/SeakMengs/BasicPDF/internal/config"
	filestorage "github.com/SeakMengs/BasicPDF/internal/file_storage"
	"github.com/SeakMengs/BasicPDF/internal/session"
	"github.com/SeakMengs/BasicPDF/pkg/basicpdf"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	// Logger lol....
	Logger *zap.SugaredLogger

	// JWTService signs and verifies the session tokens.
	JWTService auth.JWTInterface

	// Sessions keeps the signing sessions in memory.
	Sessions *session.Store

	// Toolkit holds the PDF engine, rasterizer and certificate parser shared by all sessions.
	Toolkit *basicpdf.Toolkit

	// Outputs is nil when finished documents are streamed back instead of stored.
	Outputs filestorage.OutputStore
}
