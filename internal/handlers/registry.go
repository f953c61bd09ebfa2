package handlers

// AppHandlers holds every handler the router registers.
type AppHandlers struct {
	ApartmentHandler      *ApartmentHandler
	BookingHandler        *BookingHandler
	AuthHandler           *AuthHandler
	AdminApartmentHandler *AdminApartmentHandler
	PhotoHandler          *PhotoHandler
	AdminBookingHandler   *AdminBookingHandler
	UserHandler           *UserHandler
	EventHandler          *EventHandler
	SettingsHandler       *SettingsHandler
}
