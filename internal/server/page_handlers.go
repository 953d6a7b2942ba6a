package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roomly-dev/roomly/internal/models"
)

const (
	dashboardReservationLimit = 3
	datetimeLocalLayout       = "2006-01-02T15:04"
)

// ReservationTimes is the start and end pair shared by the reserve and edit
// forms. Times use the browser's datetime-local format.
type ReservationTimes struct {
	StartTime string `form:"startTime" binding:"required"`
	EndTime   string `form:"endTime" binding:"required"`
}

// ReservationForm is the reserve page form
type ReservationForm struct {
	ReservationTimes
	Capacity int `form:"capacity" binding:"required,min=1"`
}

// parse reads both times in local time, adding field messages to errs
func (f ReservationTimes) parse(errs map[string]string) (start, end time.Time) {
	start, errStart := time.ParseInLocation(datetimeLocalLayout, f.StartTime, time.Local)
	end, errEnd := time.ParseInLocation(datetimeLocalLayout, f.EndTime, time.Local)
	switch {
	case errStart != nil:
		errs["StartTime"] = "Enter a valid start time"
	case errEnd != nil:
		errs["EndTime"] = "Enter a valid end time"
	case !end.After(start):
		errs["EndTime"] = "End time must be after start time"
	}
	return start, end
}

func timesOf(r models.Reservation) ReservationTimes {
	return ReservationTimes{
		StartTime: r.StartTime.Local().Format(datetimeLocalLayout),
		EndTime:   r.EndTime.Local().Format(datetimeLocalLayout),
	}
}

func (s *Server) home(c *gin.Context) {
	s.render(c, http.StatusOK, "home.tmpl", nil)
}

func (s *Server) dashboard(c *gin.Context) {
	var upcoming []models.Reservation
	path := "/reservations?limit=" + strconv.Itoa(dashboardReservationLimit)
	if err := s.fetch(c, path, &upcoming); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load upcoming reservations")
	}

	s.render(c, http.StatusOK, "dashboard.tmpl", gin.H{"Reservations": upcoming})
}

func (s *Server) listSpaces(c *gin.Context) {
	var spaces []models.Space
	if err := s.fetch(c, "/spaces", &spaces); err != nil {
		s.logger.Error().Err(err).Msg("Failed to load spaces")
		s.renderError(c, statusFor(err), "Could not load spaces")
		return
	}

	s.render(c, http.StatusOK, "spaces.tmpl", gin.H{"Spaces": spaces})
}

func (s *Server) getSpace(c *gin.Context) {
	id := url.PathEscape(c.Param("id"))

	var space models.Space
	if err := s.fetch(c, "/spaces/"+id, &space); err != nil {
		s.logger.Error().Err(err).Str("space_id", c.Param("id")).Msg("Failed to load space")
		s.renderError(c, statusFor(err), "Space not found")
		return
	}

	var rooms []models.Room
	if err := s.fetch(c, "/spaces/"+id+"/rooms", &rooms); err != nil {
		s.logger.Warn().Err(err).Str("space_id", c.Param("id")).Msg("Failed to load rooms")
	}

	s.render(c, http.StatusOK, "space.tmpl", gin.H{"Space": space, "Rooms": rooms})
}

func (s *Server) listReservations(c *gin.Context) {
	var reservations []models.Reservation
	if err := s.fetch(c, "/reservation/", &reservations); err != nil {
		s.logger.Error().Err(err).Msg("Failed to load reservations")
		s.renderError(c, statusFor(err), "Could not load your reservations")
		return
	}

	s.render(c, http.StatusOK, "reservations.tmpl", gin.H{"Reservations": reservations})
}

func (s *Server) deleteReservation(c *gin.Context) {
	rs := s.getRequestSession(c)
	id := c.Param("id")

	env, err := rs.api.Delete(c.Request.Context(), "/reservation/"+url.PathEscape(id))
	switch {
	case err != nil:
		s.logger.Error().Err(err).Str("reservation_id", id).Msg("Failed to cancel reservation")
		rs.toasts.failure("Cancellation failed", "An error occurred while cancelling the reservation")
	case !env.OK() || !env.Success:
		rs.toasts.failure("Cancellation failed", env.MessageOr("The reservation could not be cancelled"))
	default:
		rs.toasts.success("Reservation cancelled", "Your reservation has been cancelled")
	}

	s.redirect(c, "/reservations")
}

// reservationDetail shows one reservation with its check-in QR code
func (s *Server) reservationDetail(c *gin.Context) {
	reservation, ok := s.loadReservation(c)
	if !ok {
		return
	}

	var qr models.ReservationQR
	if err := s.fetch(c, "/reservation/"+url.PathEscape(reservation.ID)+"/qr", &qr); err != nil {
		s.logger.Warn().Err(err).Str("reservation_id", reservation.ID).Msg("Failed to load QR code")
	}

	s.render(c, http.StatusOK, "reservation.tmpl", gin.H{"Reservation": reservation, "QRCode": qr.QRCode})
}

func (s *Server) editReservationPage(c *gin.Context) {
	reservation, ok := s.loadReservation(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "reservation_edit.tmpl", gin.H{"Reservation": reservation, "Form": timesOf(reservation)})
}

func (s *Server) editReservationSubmit(c *gin.Context) {
	rs := s.getRequestSession(c)

	reservation, ok := s.loadReservation(c)
	if !ok {
		return
	}

	var form ReservationTimes
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "reservation_edit.tmpl", gin.H{
			"Reservation": reservation, "Form": form, "Errors": formErrors(err),
		})
		return
	}

	errs := map[string]string{}
	start, end := form.parse(errs)
	if len(errs) > 0 {
		s.render(c, http.StatusBadRequest, "reservation_edit.tmpl", gin.H{
			"Reservation": reservation, "Form": form, "Errors": errs,
		})
		return
	}

	update := models.ReservationUpdate{StartTime: start.UTC(), EndTime: end.UTC()}
	env, err := rs.api.Put(c.Request.Context(), "/reservation/"+url.PathEscape(reservation.ID), update)
	if err != nil {
		s.logger.Error().Err(err).Str("reservation_id", reservation.ID).Msg("Failed to update reservation")
		rs.toasts.failure("Update failed", "An error occurred while updating reservation")
		s.render(c, http.StatusBadGateway, "reservation_edit.tmpl", gin.H{"Reservation": reservation, "Form": form})
		return
	}
	if !env.OK() || !env.Success {
		rs.toasts.failure("Update failed", env.MessageOr("Failed to update reservation"))
		s.render(c, http.StatusConflict, "reservation_edit.tmpl", gin.H{"Reservation": reservation, "Form": form})
		return
	}

	rs.toasts.success("Reservation updated", "Your reservation has been updated successfully")
	s.redirect(c, "/reservations")
}

// loadReservation fetches the reservation named in the path, rendering the
// error page when it cannot
func (s *Server) loadReservation(c *gin.Context) (models.Reservation, bool) {
	var reservation models.Reservation
	id := c.Param("id")
	if err := s.fetch(c, "/reservation/"+url.PathEscape(id), &reservation); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", id).Msg("Failed to load reservation")
		s.renderError(c, statusFor(err), "Failed to fetch reservation details")
		return reservation, false
	}
	if reservation.ID == "" {
		reservation.ID = id
	}
	return reservation, true
}

func (s *Server) reservePage(c *gin.Context) {
	room, ok := s.loadRoom(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "reserve.tmpl", gin.H{"Room": room, "Form": ReservationForm{}})
}

func (s *Server) reserveSubmit(c *gin.Context) {
	rs := s.getRequestSession(c)

	room, ok := s.loadRoom(c)
	if !ok {
		return
	}

	var form ReservationForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "reserve.tmpl", gin.H{
			"Room": room, "Form": form, "Errors": formErrors(err),
		})
		return
	}

	errs := map[string]string{}
	start, end := form.parse(errs)
	if room.Capacity > 0 && form.Capacity > room.Capacity {
		errs["Capacity"] = "Exceeds the room capacity"
	}
	if len(errs) > 0 {
		s.render(c, http.StatusBadRequest, "reserve.tmpl", gin.H{"Room": room, "Form": form, "Errors": errs})
		return
	}

	req := models.ReservationRequest{
		RoomID:    room.ID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Capacity:  form.Capacity,
	}
	env, err := rs.api.Post(c.Request.Context(), "/rooms/"+url.PathEscape(room.ID)+"/reservation/", req)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", room.ID).Msg("Failed to create reservation")
		rs.toasts.failure("Reservation failed", "An error occurred while creating the reservation")
		s.render(c, http.StatusBadGateway, "reserve.tmpl", gin.H{"Room": room, "Form": form})
		return
	}
	if !env.OK() || !env.Success {
		rs.toasts.failure("Reservation failed", env.MessageOr("The room could not be reserved"))
		s.render(c, http.StatusConflict, "reserve.tmpl", gin.H{"Room": room, "Form": form})
		return
	}

	rs.toasts.success("Reservation confirmed", "Your room has been reserved")
	s.redirect(c, "/reservations")
}

// loadRoom fetches the room named in the path, rendering the error page when
// it cannot
func (s *Server) loadRoom(c *gin.Context) (models.Room, bool) {
	var room models.Room
	id := c.Param("roomId")
	if err := s.fetch(c, "/rooms/"+url.PathEscape(id), &room); err != nil {
		s.logger.Error().Err(err).Str("room_id", id).Msg("Failed to load room")
		s.renderError(c, statusFor(err), "Room not found")
		return room, false
	}
	if room.ID == "" {
		room.ID = id
	}
	return room, true
}
