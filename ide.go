package main

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ideTemplateName = "graphiql"

var ideTemplate = template.Must(template.New(ideTemplateName).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
  <style>body { margin: 0; height: 100vh; } #graphiql { height: 100vh; }</style>
</head>
<body>
  <div id="graphiql" data-endpoint="{{.Endpoint}}">Loading...</div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    var container = document.getElementById('graphiql');
    var fetcher = GraphiQL.createFetcher({ url: container.dataset.endpoint });
    ReactDOM.createRoot(container).render(React.createElement(GraphiQL, { fetcher: fetcher }));
  </script>
</body>
</html>
`))

// serveIDE renders GraphiQL wired to endpoint.
func serveIDE(title, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, ideTemplateName, gin.H{
			"Title":    title,
			"Endpoint": endpoint,
		})
	}
}
