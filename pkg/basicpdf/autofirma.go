package basicpdf

import "regexp"

type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

const (
	AutoFirmaDesktopURL = "https://sede.serviciosmin.gob.es/es-es/firmaelectronica/paginas/autofirma.aspx"
	AutoFirmaAndroidURL = "https://play.google.com/store/apps/details?id=es.gob.afirma"
	AutoFirmaIOSURL     = "https://apps.apple.com/es/app/cliente-afirma/id943714652"
)

var (
	androidAgent = regexp.MustCompile(`(?i)android`)
	iosAgent     = regexp.MustCompile(`iPad|iPhone|iPod`)
)

func DetectPlatform(userAgent string) Platform {
	switch {
	case androidAgent.MatchString(userAgent):
		return PlatformAndroid
	case iosAgent.MatchString(userAgent):
		return PlatformIOS
	default:
		return PlatformDesktop
	}
}

type HowToStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AutoFirmaLinks struct {
	Platform Platform `json:"platform"`
	// Link recommended for the platform, the others are listed too
	Recommended string      `json:"recommended"`
	Desktop     string      `json:"desktop"`
	Android     string      `json:"android"`
	IOS         string      `json:"ios"`
	Steps       []HowToStep `json:"steps"`
}

var autoFirmaSteps = []HowToStep{
	{Title: "1. Descarga", Description: "Instala la herramienta oficial en tu equipo o móvil."},
	{Title: "2. Selecciona", Description: "Abre la App y carga el PDF que quieras firmar."},
	{Title: "3. Firma", Description: "Usa tu certificado para generar el archivo firmado legalmente."},
}

func NewAutoFirmaLinks(platform Platform) AutoFirmaLinks {
	links := AutoFirmaLinks{
		Platform:    platform,
		Recommended: AutoFirmaDesktopURL,
		Desktop:     AutoFirmaDesktopURL,
		Android:     AutoFirmaAndroidURL,
		IOS:         AutoFirmaIOSURL,
		Steps:       append([]HowToStep(nil), autoFirmaSteps...),
	}
	switch platform {
	case PlatformAndroid:
		links.Recommended = AutoFirmaAndroidURL
	case PlatformIOS:
		links.Recommended = AutoFirmaIOSURL
	}
	return links
}
