package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, templateHandler *TemplateHandler) {
	api := server.Group("/api/v1")

	if importHandler != nil {
		api.POST("/imports/uploads", importHandler.UploadFile)
		api.POST("/imports", importHandler.StartImport)
		api.GET("/imports", importHandler.ListImportJobs)
		api.GET("/imports/entities/:entity/fields", importHandler.ListEntityFields)
		api.GET("/imports/:id", importHandler.GetImportJob)
	}

	if templateHandler != nil {
		api.POST("/import-templates", templateHandler.SaveTemplate)
		api.GET("/import-templates", templateHandler.ListTemplates)
		api.DELETE("/import-templates/:id", templateHandler.DeleteTemplate)
	}
}
