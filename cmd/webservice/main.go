package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/improvgroup/uniteller-payments/events"
	"github.com/improvgroup/uniteller-payments/uniteller"
	"github.com/improvgroup/uniteller-payments/utils"
	"github.com/improvgroup/uniteller-payments/web/controllers"
	"github.com/improvgroup/uniteller-payments/web/db"
	"github.com/improvgroup/uniteller-payments/web/middleware"
	"github.com/improvgroup/uniteller-payments/web/orders"
	"github.com/improvgroup/uniteller-payments/web/settings"
)

func init() {
	utils.LoadEnv()
	db.Connect()
	db.Sync()
}

func main() {
	publisher := events.Connect()
	defer publisher.Close()

	settingsService := settings.NewService(db.DB)
	orderService := orders.NewService(db.DB, publisher)

	handler := &controllers.UnitellerHandler{
		Orders:     orderService,
		Settings:   settingsService,
		Gateway:    uniteller.NewClient(),
		StoreName:  utils.StorefrontName(),
		ReturnBase: utils.StoreURL(),
	}
	configure := &controllers.ConfigureHandler{Settings: settingsService}

	r := gin.Default()
	r.Use(cors.Default())

	limiter := middleware.NewRateLimiter(60, time.Minute)
	limiter.StartCleanup(10 * time.Minute)

	r.GET("/health", controllers.Health)

	// gateway routes, paths fixed by the protocol; the gateway may use
	// either method for the callback and the browser returns
	r.POST("/Plugins/Uniteller/ConfirmPay", handler.ConfirmPay)
	r.GET("/Plugins/Uniteller/ConfirmPay", handler.ConfirmPay)
	r.GET("/Plugins/Uniteller/Success", handler.Success)
	r.POST("/Plugins/Uniteller/Success", handler.Success)
	r.GET("/Plugins/Uniteller/CancelOrder", handler.CancelOrder)
	r.POST("/Plugins/Uniteller/CancelOrder", handler.CancelOrder)

	r.POST("/checkout/pay/:order_guid", limiter.Middleware(), handler.PostProcessPayment)
	r.GET("/checkout/repost/:order_guid", limiter.Middleware(), handler.RePostProcessPayment)
	r.GET("/Plugins/Uniteller/qr/:order_guid", limiter.Middleware(), handler.PaymentQR)

	r.POST("/admin/login", limiter.Middleware(), controllers.AdminLogin)
	r.GET("/admin/uniteller/configure", middleware.AdminAuth, configure.Get)
	r.POST("/admin/uniteller/configure", middleware.AdminAuth, configure.Save)

	r.Run()
}
