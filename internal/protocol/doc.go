// Package protocol implements the JSON wire format spoken between the
// checkout client and an SDK gateway.
//
// Every websocket text frame carries one Envelope. There are three kinds:
//
//   - request:  client -> gateway, names an SDK method and carries its params
//   - response: gateway -> client, answers a request by id, optionally with an error
//   - event:    gateway -> client, an unsolicited SDK callback ("error", "paymentStatus")
//
// # Wire Examples
//
//	{"type":"request","id":"6f1c...","method":"initialiseOnlineSDK",
//	 "params":{"publicKey":"pk_test","orderId":"ord_1","nonce":"n_1"}}
//	{"type":"response","id":"6f1c..."}
//	{"type":"response","id":"7a2d...","error":{"code":"INVALID_EMAIL","message":"email is required"}}
//	{"type":"event","method":"paymentStatus","params":{"paymentStatus":"PAYMENT_COMPLETED"}}
//
// # Methods
//
// Requests that the SDK answers with a promise (initialiseOnlineSDK,
// order.addCustomerInformation) always get a response. Fire-and-forget calls
// (mount, order.initiatePayments) are answered only when they are rejected,
// and then through an "error" event rather than a response.
//
// Request ids are random UUIDs so that responses can be matched to callers
// regardless of arrival order.
package protocol
