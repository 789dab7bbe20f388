package rest

import "github.com/gin-gonic/gin"

func NewApi(router *gin.Engine, posts *PostsHandler, feeds *FeedsHandler, media *MediaHandler) {
	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", posts.GetPosts)
		postsV1.GET("/:slug", posts.GetPost)
		postsV1.GET("/:slug/raw", posts.GetRawPost)
		postsV1.POST("/", posts.CreatePost)
	}

	searchV1 := router.Group("search/v1")
	{
		searchV1.GET("/", posts.SearchPosts)
	}

	mediaV1 := router.Group("media/v1")
	{
		mediaV1.POST("/", media.UploadMedia)
	}

	router.GET("/feed.xml", feeds.GetRSS)
	router.GET("/sitemap.xml", feeds.GetSitemap)
}
