package util

func GetAppName() string {
	return "BasicPDF"
}
